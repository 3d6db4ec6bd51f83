package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbdesk/internal/ddl"
	"github.com/koustreak/dbdesk/internal/schema"
)

func introspector(r *http.Request) *schema.Introspector {
	return schema.New(connFrom(r.Context()))
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := introspector(r).ListTables(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"tables": tables})
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	var req ddl.CreateTableRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := orchestrator(r).CreateTable(r.Context(), req)
	s.ddlResult(w, r, res, err)
}

func (s *Server) describeTable(w http.ResponseWriter, r *http.Request) {
	desc, err := introspector(r).Describe(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"table": desc})
}

func (s *Server) dropTable(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrator(r).DropTable(r.Context(), chi.URLParam(r, "table"))
	s.ddlResult(w, r, res, err)
}

type renameRequest struct {
	NewName string `json:"newName"`
}

func (s *Server) renameTable(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := orchestrator(r).RenameTable(r.Context(), chi.URLParam(r, "table"), req.NewName)
	s.ddlResult(w, r, res, err)
}

func (s *Server) foreignKeyCandidates(w http.ResponseWriter, r *http.Request) {
	names, err := introspector(r).ListForeignKeyCandidates(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"tables": names})
}

func (s *Server) listForeignKeys(w http.ResponseWriter, r *http.Request) {
	fks, err := introspector(r).ListForeignKeys(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"foreignKeys": fks})
}

func (s *Server) addForeignKey(w http.ResponseWriter, r *http.Request) {
	var spec ddl.ForeignKeySpec
	if err := decode(r, &spec); err != nil {
		fail(w, r, err)
		return
	}
	res, err := orchestrator(r).AddForeignKey(r.Context(), chi.URLParam(r, "table"), spec)
	s.ddlResult(w, r, res, err)
}

func (s *Server) dropForeignKey(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrator(r).DropForeignKey(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "name"))
	s.ddlResult(w, r, res, err)
}

func (s *Server) addColumn(w http.ResponseWriter, r *http.Request) {
	var spec ddl.ColumnSpec
	if err := decode(r, &spec); err != nil {
		fail(w, r, err)
		return
	}
	res, err := orchestrator(r).AddColumn(r.Context(), chi.URLParam(r, "table"), spec)
	s.ddlResult(w, r, res, err)
}

func (s *Server) modifyColumn(w http.ResponseWriter, r *http.Request) {
	var spec ddl.ColumnSpec
	if err := decode(r, &spec); err != nil {
		fail(w, r, err)
		return
	}
	res, err := orchestrator(r).ModifyColumn(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "column"), spec)
	s.ddlResult(w, r, res, err)
}

func (s *Server) dropColumn(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrator(r).DropColumn(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "column"))
	s.ddlResult(w, r, res, err)
}
