package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/dmitrijs2005/healthkey/internal/client/client"
	"github.com/dmitrijs2005/healthkey/internal/client/config"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/events"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/healthkey/internal/client/services"
	"github.com/dmitrijs2005/healthkey/internal/filex"
	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/netx"
	"github.com/dmitrijs2005/healthkey/internal/program"
)

type App struct {
	config     *config.Config
	db         *sql.DB
	pipeline   services.Pipeline
	profiles   services.ProfileService
	eventsRepo events.Repository
	blobs      *filex.BlobHolder
	logger     logging.Logger
	reader     *bufio.Reader
	out        io.Writer
}

// NewApp wires the local database, gateway client, ledger client and vault
// pipeline from c.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	blobDir := os.TempDir()
	if c.BlobDir != "" {
		if blobDir, err = filex.EnsureSubdDir(c.BlobDir); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	gateway := client.NewHTTPGateway(c.GatewayURL, c.Retrieval(), httpClient, netx.DefaultPolicy, logger)

	rpc := ledger.NewRPCClient(c.RPCURL, httpClient)
	sender := ledger.NewSender(rpc, c.ConfirmInterval, logger)

	var anchorer services.Anchorer
	if c.Anchor {
		anchorer = ledger.NewAnchorer(sender)
	}

	if c.ProgramID != "" {
		id, err := ledger.ParsePublicKey(c.ProgramID)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		program.ID = id
	}

	uploadRepo := uploads.NewSQLiteRepository(db)
	metadataRepo := metadata.NewSQLiteRepository(db)
	walletSession := services.NewWalletSession()

	eventsRepo := events.NewSQLiteRepository(db)
	eventLog := services.NewEventLog()
	eventLog.Subscribe(services.PersistTo(eventsRepo, logger))

	p := services.NewPipeline(services.Deps{
		Gateway:  gateway,
		Uploads:  uploadRepo,
		Metadata: metadataRepo,
		Anchorer: anchorer,
		Wallet:   walletSession,
		Events:   eventLog,
		Logger:   logger,
	})
	profiles := services.NewProfileService(program.NewClient(sender, rpc), walletSession, uploadRepo, metadataRepo)

	return &App{
		config:     c,
		db:         db,
		pipeline:   p,
		profiles:   profiles,
		eventsRepo: eventsRepo,
		blobs:      filex.NewBlobHolder(blobDir),
		logger:     logger,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}, nil
}

// Run starts the REPL and blocks until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)
	a.Root(ctx)
}

// Close disconnects the wallet and releases the materialized blob.
func (a *App) Close(ctx context.Context) {
	a.pipeline.Disconnect(ctx)
	if err := a.blobs.Close(); err != nil {
		a.logger.Warn(ctx, "failed to release blob", "error", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isConnected() bool {
	_, err := a.pipeline.Address()
	return err == nil
}
