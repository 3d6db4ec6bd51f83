package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbdesk/internal/ddl"
	"github.com/koustreak/dbdesk/internal/schema"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	if s.saved != nil {
		if err := s.saved.Ping(r.Context()); err != nil {
			fail(w, r, err)
			return
		}
	}
	ok(w, envelope{"dialect": s.pool.Dialect().String(), "savedQueries": s.saved != nil})
}

func (s *Server) listDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := schema.New(connFrom(r.Context())).ListDatabases(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"databases": dbs})
}

type createDatabaseRequest struct {
	Name      string `json:"name"`
	Charset   string `json:"charset"`
	Collation string `json:"collation"`
}

func (s *Server) createDatabase(w http.ResponseWriter, r *http.Request) {
	var req createDatabaseRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := orchestrator(r).CreateDatabase(r.Context(), req.Name, req.Charset, req.Collation)
	s.ddlResult(w, r, res, err)
}

func (s *Server) dropDatabase(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrator(r).DropDatabase(r.Context(), chi.URLParam(r, "db"))
	s.ddlResult(w, r, res, err)
}

// orchestrator builds a DDL orchestrator on the request's connection.
func orchestrator(r *http.Request) *ddl.Orchestrator {
	conn := connFrom(r.Context())
	return ddl.New(conn, schema.New(conn))
}

func (s *Server) ddlResult(w http.ResponseWriter, r *http.Request, res *ddl.Result, err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"message": res.Message, "statements": res.Statements})
}
