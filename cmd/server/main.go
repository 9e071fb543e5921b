// Package main is the entry point for aws-cost-server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httpadapter "aws-cost/adapters/http"
	"aws-cost/internal/app"
	"aws-cost/internal/config"
	"aws-cost/internal/logging"
	"aws-cost/internal/telemetry"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "config file (.json, .yaml or .hcl)")
	addr := flag.String("addr", "", "server address (default from config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		logging.Error("server failed", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.Set(cfg)
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	shutdownTracer, err := telemetry.InitTracer("aws-cost-server", version, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer shutdownTracer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	httpadapter.Version = version
	logging.Info("aws-cost-server starting",
		zap.String("version", version),
		zap.String("reports", a.Renderer.OutputDir()))
	return a.Serve(ctx, addr)
}
