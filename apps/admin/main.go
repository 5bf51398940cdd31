package main

import (
	"fmt"
	"os"

	"github.com/tscswap/backend/apps/shared"
	"github.com/tscswap/backend/core"
	logsvc "github.com/tscswap/backend/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewLocalLogger(os.Stderr, conf), conf)
	logger.Enable(!conf.Debug)

	// migrations are run explicitly through the CLI
	deps, err := shared.NewContainer(conf, logger, shared.Setup{CreateDB: true})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		swapSvc:    deps.SwapSvc,
		listingSvc: deps.ListingSvc,
		presenter:  deps.Presenter,
		out:        os.Stdout,
	}
	if deps.DB != nil {
		cli.db = deps.DB.DB
	}
	err = cli.run(os.Args)
	_ = deps.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
