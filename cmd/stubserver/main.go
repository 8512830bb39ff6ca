package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/driversync/internal/config"
	"github.com/example/driversync/internal/logging"
	"github.com/example/driversync/internal/stub"
)

func main() {
	cfg, err := config.LoadStubConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("bad configuration", "error", err)
		os.Exit(1)
	}

	srv := stub.NewServerFromConfig(cfg, logger)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("stub server listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if srv.Events != nil {
		_ = srv.Events.Close()
	}
	logger.Info("stub server stopped")
}
