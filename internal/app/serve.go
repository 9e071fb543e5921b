package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	httpadapter "aws-cost/adapters/http"
	"aws-cost/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// HTTP builds the HTTP adapter over the wired dispatcher and report service
func (a *App) HTTP(address string) *httpadapter.Adapter {
	cfg := httpadapter.DefaultConfig()
	cfg.Address = a.Config.Server.Address
	if address != "" {
		cfg.Address = address
	}
	cfg.ReportsDir = a.Renderer.OutputDir()
	cfg.DaysBack = a.Config.Report.DaysBack
	return httpadapter.New(a.Dispatcher, a.Analysis, cfg)
}

// Serve runs the HTTP adapter until ctx is canceled, then shuts it down
func (a *App) Serve(ctx context.Context, address string) error {
	server := a.HTTP(address)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
