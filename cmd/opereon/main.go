package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opereon/opereon/cmd/opereon/commands"
	"github.com/opereon/opereon/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	tel, err := newTelemetry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "opereon: build telemetry: %v\n", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		tel.Logger.Info("received interrupt signal, shutting down")
		cancel()
	}()

	if err := commands.Execute(ctx, Version, Commit, BuildDate, tel); err != nil {
		tel.Logger.WithError(err).Error("command execution failed")
		os.Exit(1)
	}
}

// newTelemetry builds the process-wide Telemetry instance the engine's
// service registry places every operation's logging/tracing/metrics boundary
// behind — development defaults unless OPEREON_ENV=production, with
// LOG_LEVEL overriding the logging level either way.
func newTelemetry() (*telemetry.Telemetry, error) {
	cfg := telemetry.DevelopmentConfig()
	if os.Getenv("OPEREON_ENV") == "production" {
		cfg = telemetry.ProductionConfig()
	}
	cfg.ServiceVersion = Version
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return telemetry.NewTelemetry(cfg)
}
