package main

import (
	"fmt"
	"os"

	"github.com/utxocommit/utxocommitd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("UTDP")

func initLog(logFile string) {
	err := logger.BackendLog.AddLogWriter(os.Stdout, logger.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger: %s\n", err)
		os.Exit(1)
	}
	if logFile != "" {
		err = logger.BackendLog.AddLogFile(logFile, logger.LevelTrace)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator: %s\n", logFile, err)
			os.Exit(1)
		}
	}
}
