// Package httpapi exposes the storage gateway over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
	"github.com/dmitrijs2005/healthkey/internal/server/services"
	"github.com/gin-gonic/gin"
)

// MaxUploadSize bounds the body of POST /tx.
const MaxUploadSize = 64 << 20

// Gateway is the service the HTTP layer drives.
type Gateway interface {
	Challenge(ctx context.Context, address string) (string, error)
	CreateSession(ctx context.Context, address, nonce, signature string) (string, error)
	Authenticate(token string) (string, error)
	Price(size int64) (int64, error)
	Balance(ctx context.Context, address string) (*models.Account, error)
	Fund(ctx context.Context, address, idempotencyKey string, amount int64) error
	Store(ctx context.Context, owner string, data []byte, tags []models.Tag) (*services.StoreResult, error)
	Retrieve(ctx context.Context, id string) ([]byte, string, error)
}

// Options tune the public retrieval limiter.
type Options struct {
	RetrievalRate  float64
	RetrievalBurst int
}

type HTTPServer struct {
	address string
	gateway Gateway
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(address string, l logging.Logger, g Gateway, o Options) *HTTPServer {
	s := &HTTPServer{
		address: address,
		gateway: g,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.routes(newIPLimiter(o.RetrievalRate, o.RetrievalBurst))
	return s
}

// Handler returns the configured router.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes(limiter *ipLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/session/challenge", s.challenge)
	r.POST("/session", s.createSession)
	r.GET("/price/:bytes", s.price)

	authed := r.Group("/", s.requireSession())
	authed.GET("/account/balance", s.balance)
	authed.POST("/account/fund", s.fund)
	authed.POST("/tx", s.store)

	r.GET("/:id", limiter.middleware(), s.retrieve)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
