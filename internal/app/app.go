package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/openchannel/internal/controllers/restserver"
	"github.com/chrissnell/openchannel/internal/storage"
	"github.com/chrissnell/openchannel/pkg/config"
	"github.com/chrissnell/openchannel/pkg/solver"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	s, err := solver.New(cfg.Model(), a.logger)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("error opening solution history: %w", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				a.logger.Warnf("error closing solution history: %v", err)
			}
		}()
	}

	rs, err := restserver.NewController(ctx, &wg, cfg, s, store, a.logger)
	if err != nil {
		return err
	}
	if err := rs.StartController(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()

	a.logger.Info("waiting for the REST server to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
