// Package server runs the storage daemon: it opens the configured backend,
// builds the gist service on top of it and sweeps expired documents on a
// fixed interval until it receives SIGINT or SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/config"
	"github.com/dmitrijs2005/ghostpaste/internal/gist"
	"github.com/dmitrijs2005/ghostpaste/internal/logging"
	"github.com/dmitrijs2005/ghostpaste/internal/storage"
	"github.com/dmitrijs2005/ghostpaste/internal/storage/backend"
)

var openBackend = backend.Open

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend backend.Backend
	service *gist.Service
}

// NewApp opens the backend named by c and wires the gist service to it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	b, err := openBackend(ctx, c.BackendConfig())
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	svc := gist.NewService(storage.New(b),
		gist.WithRetryPolicy(c.RetryPolicy(gist.IsTransient)),
		gist.WithMaxVersions(c.MaxVersions),
		gist.WithLogger(logger),
	)

	return &App{
		config:  c,
		logger:  logger.With("module", "server"),
		backend: b,
		service: svc,
	}, nil
}

func (app *App) Service() *gist.Service { return app.service }

func (app *App) Close() error { return app.backend.Close() }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Sweep runs one expiry pass.
func (app *App) Sweep(ctx context.Context) (gist.CleanupResult, error) {
	res, err := app.service.CleanupExpiredGists(ctx, app.config.SweepBatchSize)
	if err != nil {
		app.logger.Error(ctx, "sweep failed", "error", err)
	}
	return res, err
}

func (app *App) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = app.Sweep(ctx)
		}
	}
}

// Run sweeps once immediately, then every SweepInterval, until ctx is
// canceled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting",
		"storage", app.config.Storage,
		"sweep_interval", app.config.SweepInterval.String(),
		"max_versions", app.config.MaxVersions,
	)

	app.initSignalHandler(cancelFunc)

	_, _ = app.Sweep(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSweeper(ctx)
	}()
	wg.Wait()

	app.logger.Info(context.Background(), "stopped")
}
