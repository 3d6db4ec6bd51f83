package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/schema"
)

type connKey struct{}

// connFrom returns the connection the conn middleware borrowed.
func connFrom(ctx context.Context) database.Conn {
	c, _ := ctx.Value(connKey{}).(database.Conn)
	return c
}

// bounded applies the query timeout to ctx.
func (s *Server) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

// withConn borrows one connection for the lifetime of the request. Only
// the borrow is bounded by the query timeout; handlers opt in with
// withDeadline.
func (s *Server) withConn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.bounded(r.Context())
		conn, err := s.pool.Conn(ctx)
		cancel()
		if err != nil {
			fail(w, r, err)
			return
		}
		defer conn.Release()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), connKey{}, conn)))
	})
}

// withDeadline bounds the whole handler by the query timeout. Export routes
// stream for as long as the client keeps reading and skip it.
func (s *Server) withDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.bounded(r.Context())
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// selectDatabase checks {db} against the visible databases and points the
// request's connection at it.
func (s *Server) selectDatabase(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "db")
		conn := connFrom(r.Context())

		ctx, cancel := s.bounded(r.Context())
		defer cancel()
		found, err := schema.New(conn).HasDatabase(ctx, name)
		if err != nil {
			fail(w, r, err)
			return
		}
		if !found {
			fail(w, r, errs.NotFound("database %q not found", name))
			return
		}
		if err := conn.SelectDatabase(ctx, name); err != nil {
			fail(w, r, err)
			return
		}

		log := logger.FromContext(r.Context()).With().Str("database", name).Logger()
		next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context())))
	})
}
