package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/query"
	"github.com/koustreak/dbdesk/internal/records"
)

func (s *Server) recordStore(r *http.Request) *records.Store {
	conn := connFrom(r.Context())
	return records.NewStore(conn, introspector(r), s.cfg.Limits)
}

// pageRequest reads offset, limit, sortColumn, sortOrder and filters from
// the query string. filters is a JSON object of column to expression.
func pageRequest(r *http.Request) (records.PageRequest, error) {
	var req records.PageRequest
	var err error
	if req.Offset, err = intParam(r, "offset"); err != nil {
		return req, err
	}
	if req.Limit, err = intParam(r, "limit"); err != nil {
		return req, err
	}
	q := r.URL.Query()
	req.SortColumn = q.Get("sortColumn")
	req.SortOrder = q.Get("sortOrder")

	if raw := q.Get("filters"); raw != "" {
		var m map[string]any
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return req, errs.Invalid("filters must be a JSON object")
		}
		req.Filters = make(records.Filters, len(m))
		for col, v := range m {
			req.Filters[col] = query.FormatValue(v)
		}
	}
	return req, nil
}

// identityOf reads the {key}/{value} path segments.
func identityOf(r *http.Request) records.Identity {
	value := chi.URLParam(r, "value")
	if r.URL.RawPath != "" {
		if v, err := url.PathUnescape(value); err == nil {
			value = v
		}
	}
	return records.Identity{Column: chi.URLParam(r, "key"), Value: value}
}

type recordBody struct {
	Data records.Values `json:"data"`
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := s.recordStore(r).SelectPage(r.Context(), chi.URLParam(r, "table"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{
		"records": page.Records,
		"total":   page.Total,
		"offset":  page.Offset,
		"limit":   page.Limit,
	})
}

func (s *Server) exportRecords(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	table := chi.URLParam(r, "table")
	store := s.recordStore(r)
	s.export(w, r, table, func(rw query.RowWriter) (int64, error) {
		return store.Export(r.Context(), table, req, rw)
	})
}

func (s *Server) insertRecord(w http.ResponseWriter, r *http.Request) {
	var body recordBody
	if err := decode(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	res, err := s.recordStore(r).Insert(r.Context(), chi.URLParam(r, "table"), body.Data)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Record inserted successfully", "insertId": res.ID, "column": res.Column})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	row, err := s.recordStore(r).SelectOne(r.Context(), chi.URLParam(r, "table"), identityOf(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"record": row})
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	var body recordBody
	if err := decode(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	n, err := s.recordStore(r).Update(r.Context(), chi.URLParam(r, "table"), identityOf(r), body.Data)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Record updated successfully", "affectedRows": n})
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	n, err := s.recordStore(r).Delete(r.Context(), chi.URLParam(r, "table"), identityOf(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Record deleted successfully", "affectedRows": n})
}
