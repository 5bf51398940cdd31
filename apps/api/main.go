package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/tscswap/backend/apps/api/echo"
	"github.com/tscswap/backend/apps/shared"
	"github.com/tscswap/backend/core"
	logsvc "github.com/tscswap/backend/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewLocalLogger(os.Stdout, conf), conf)
	logger.Enable(!conf.Debug)

	deps, err := shared.NewContainer(conf, logger, shared.Setup{CreateDB: conf.Debug, Migrate: true})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}
	defer func() {
		if err = deps.Close(); err != nil {
			logger.Error("failed to close dependencies", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address,
		AppName:        conf.AppName,
		Debug:          conf.Debug,
		TestMode:       conf.TestMode,
		SecretKey:      conf.SecretKey,
		Logger:         logger,
		Validate:       deps.Validate,
		Translator:     deps.Translator,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		SwapSvc:        deps.SwapSvc,
		ListingSvc:     deps.ListingSvc,
		LocationSvc:    deps.LocationSvc,
		Presenter:      deps.Presenter,
		Publisher:      deps.Publisher,
		Metrics:        deps.Recorder.Handler(),
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
