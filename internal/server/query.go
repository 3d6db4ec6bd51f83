package server

import (
	"net/http"

	"github.com/koustreak/dbdesk/internal/query"
)

type queryRequest struct {
	Query string `json:"query"`
	Name  string `json:"name"` // export file name, optional
}

func (s *Server) executor(r *http.Request) *query.Executor {
	return query.NewExecutor(connFrom(r.Context()), s.cfg.MaxRows)
}

func (s *Server) executeQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := s.executor(r).Execute(r.Context(), req.Query)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{
		"type":         res.Type,
		"columns":      res.Columns,
		"rows":         res.Rows,
		"rowCount":     res.RowCount,
		"truncated":    res.Truncated,
		"affectedRows": res.AffectedRows,
		"insertId":     res.InsertID,
		"message":      res.Message,
	})
}

func (s *Server) exportQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	exec := s.executor(r)
	s.export(w, r, req.Name, func(rw query.RowWriter) (int64, error) {
		return exec.Export(r.Context(), req.Query, rw)
	})
}
