// Package server exposes dbdesk over HTTP.
//
// Every route under /api/databases/{db} runs on one pooled connection that
// the conn middleware borrows, points at {db} and releases once the
// handler returns. Handlers build their schema, record, DDL and query
// components on that connection per request; nothing is cached between
// requests.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/filestore"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/records"
	"github.com/koustreak/dbdesk/internal/savedquery"
	"golang.org/x/sync/errgroup"
)

// Config holds the HTTP and per-request settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// QueryTimeout bounds every request that holds a database connection.
	// Zero disables the deadline.
	QueryTimeout time.Duration

	MaxRows int
	Limits  records.Limits

	// Export is the sink configuration. Bucket, Prefix and PresignTTL are
	// read from it when a sink is attached.
	Export *filestore.Config
}

// SavedQueries is the saved-query repository. *savedquery.Store implements it.
type SavedQueries interface {
	Save(ctx context.Context, q savedquery.SavedQuery) (*savedquery.SavedQuery, error)
	List(ctx context.Context, database, table string) ([]savedquery.SavedQuery, error)
	Load(ctx context.Context, id string) (*savedquery.SavedQuery, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

var _ SavedQueries = (*savedquery.Store)(nil)

// Server is the dbdesk HTTP API.
type Server struct {
	cfg   Config
	pool  database.DB
	saved SavedQueries
	sink  filestore.Sink
	log   *logger.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithSavedQueries enables the /api/saved-queries routes.
func WithSavedQueries(s SavedQueries) Option {
	return func(srv *Server) { srv.saved = s }
}

// WithSink enables exports to object storage.
func WithSink(s filestore.Sink) Option {
	return func(srv *Server) { srv.sink = s }
}

// WithLogger sets the root logger. The global logger is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(srv *Server) { srv.log = l }
}

// New returns a Server serving pool.
func New(cfg Config, pool database.DB, opts ...Option) *Server {
	if cfg.Export == nil {
		cfg.Export = filestore.DefaultConfig("", "", "")
	}
	s := &Server{cfg: cfg, pool: pool, log: logger.Global()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		logger.Middleware(s.log),
		middleware.Recoverer,
	)
	s.routes(r)
	return r
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	eg.Go(func() error {
		s.log.Infof("listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
