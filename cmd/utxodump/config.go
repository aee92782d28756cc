package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/utxocommit/utxocommitd/infrastructure/logger"
	"github.com/utxocommit/utxocommitd/version"
)

const defaultBucket = "utxos/"

type configFlags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DataDir     string `short:"b" long:"datadir" description:"Directory of the leveldb element store" required:"true"`
	Bucket      string `long:"bucket" description:"Key prefix under which elements are stored"`
	LogFile     string `long:"logfile" description:"File to write the log to, rotated"`
	LogLevel    string `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	Profile     string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65535"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		Bucket:   defaultBucket,
		LogLevel: logger.LevelInfo.String(),
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	if err != nil {
		return nil, err
	}

	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}
