package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/savedquery"
)

func (s *Server) savedQueries(w http.ResponseWriter, r *http.Request) (SavedQueries, bool) {
	if s.saved == nil {
		fail(w, r, errs.Invalid("saved queries are not enabled"))
		return nil, false
	}
	return s.saved, true
}

func (s *Server) listSavedQueries(w http.ResponseWriter, r *http.Request) {
	store, enabled := s.savedQueries(w, r)
	if !enabled {
		return
	}
	q := r.URL.Query()
	list, err := store.List(r.Context(), q.Get("database"), q.Get("table"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"queries": list})
}

func (s *Server) saveQuery(w http.ResponseWriter, r *http.Request) {
	store, enabled := s.savedQueries(w, r)
	if !enabled {
		return
	}
	var req savedquery.SavedQuery
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	saved, err := store.Save(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Query saved successfully", "query": saved})
}

func (s *Server) loadSavedQuery(w http.ResponseWriter, r *http.Request) {
	store, enabled := s.savedQueries(w, r)
	if !enabled {
		return
	}
	q, err := store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"query": q})
}

func (s *Server) deleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	store, enabled := s.savedQueries(w, r)
	if !enabled {
		return
	}
	if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Query deleted successfully"})
}
