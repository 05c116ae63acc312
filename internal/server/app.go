// Package server wires and runs the storage gateway: database, blob store,
// gateway service and HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/server/blobs"
	"github.com/dmitrijs2005/healthkey/internal/server/config"
	"github.com/dmitrijs2005/healthkey/internal/server/httpapi"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/healthkey/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const challengePurgeInterval = time.Minute

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	gateway *services.GatewayService
}

func newBlobStore(ctx context.Context, c *config.Config) (blobs.Store, error) {
	switch c.Storage {
	case config.StorageMemory:
		return blobs.NewMemoryStore(), nil
	case config.StorageS3:
		return blobs.NewS3Store(ctx, blobs.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gs := services.NewGatewayService(db, rm, store, c, logger)

	return &App{config: c, logger: logger, db: db, gateway: gs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddr, app.logger, app.gateway, httpapi.Options{
		RetrievalRate:  app.config.RetrievalRate,
		RetrievalBurst: app.config.RetrievalBurst,
	})
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) purgeChallenges(ctx context.Context) {
	ticker := time.NewTicker(challengePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.gateway.PurgeChallenges(ctx)
			if err != nil {
				app.logger.Warn(ctx, "challenge purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired challenges removed", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeChallenges(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
}
