package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	views, err := introspector(r).ListViews(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"views": views})
}

func (s *Server) viewSource(w http.ResponseWriter, r *http.Request) {
	source, err := introspector(r).ViewSource(r.Context(), chi.URLParam(r, "view"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"source": source})
}

func (s *Server) fixViewDefiner(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrator(r).FixViewDefiner(r.Context(), chi.URLParam(r, "view"))
	s.ddlResult(w, r, res, err)
}

func (s *Server) fixAllViewDefiners(w http.ResponseWriter, r *http.Request) {
	fixes, err := orchestrator(r).FixAllViewDefiners(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	fixed := 0
	for _, f := range fixes {
		if f.Success {
			fixed++
		}
	}
	ok(w, envelope{"results": fixes, "fixed": fixed, "total": len(fixes)})
}
