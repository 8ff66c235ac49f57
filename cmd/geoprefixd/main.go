// Command geoprefixd serves a spatial prefix-tree index over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cobrun/geoprefix/bootstrap"
	"github.com/cobrun/geoprefix/config"
	"github.com/cobrun/geoprefix/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("geoprefixd")
	if err != nil {
		logging.NewLogger("info").WithError(err).Fatal("failed to load config")
	}

	svc, err := bootstrap.Initialize(ctx, cfg, bootstrap.Options{})
	if err != nil {
		logging.NewLogger(cfg.LogLevel).WithError(err).Fatal("failed to initialize service")
	}

	runErr := svc.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	svc.Close(shutdownCtx)

	if runErr != nil {
		svc.Logger.WithError(runErr).Fatal("server stopped")
	}
}
