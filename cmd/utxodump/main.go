package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/utxocommit/utxocommitd/domain/utxocommit"
	"github.com/utxocommit/utxocommitd/infrastructure/db/ldb"
	"github.com/utxocommit/utxocommitd/infrastructure/logger"
	"github.com/utxocommit/utxocommitd/util/panics"
	"github.com/utxocommit/utxocommitd/util/profiling"
	"github.com/utxocommit/utxocommitd/version"
)

func main() {
	defer panics.HandlePanic(log, "MAIN", nil)

	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}
	initLog(cfg.LogFile)
	_ = logger.SetLogLevels(cfg.LogLevel)

	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		err := profiling.Start(cfg.Profile, log)
		if err != nil {
			panic(errors.Wrap(err, "error starting the profiling server"))
		}
	}

	db, err := ldb.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(errors.Wrapf(err, "error opening the element store at %s", cfg.DataDir))
	}
	defer db.Close()

	set := ldb.NewUTXODataSet(db, []byte(cfg.Bucket))
	commit := utxocommit.New()
	err = commit.InitialLoad(set)
	if err != nil {
		panic(errors.Wrap(err, "error loading the element store"))
	}

	fmt.Printf("commitment %s\n", commit.Hash())
	for trunk, stats := range commit.Stats() {
		log.Infof("Trunk %x: %d nodes, %d branches, %d multisets, %d queued",
			trunk, stats.Nodes, stats.Branches, stats.Multisets, stats.Queued)
	}
}
