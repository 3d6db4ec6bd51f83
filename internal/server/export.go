package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/filestore"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/query"
)

const (
	sinkDownload = "download"
	sinkObject   = "object"
)

// export writes the rows produce emits in the format named by ?format.
// With ?sink=object the file goes to object storage and the response
// carries a presigned URL; otherwise it is sent as an attachment.
func (s *Server) export(w http.ResponseWriter, r *http.Request, name string, produce func(query.RowWriter) (int64, error)) {
	f, err := query.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if name == "" {
		name = "query"
	}

	switch sink := r.URL.Query().Get("sink"); sink {
	case "", sinkDownload:
		s.download(w, r, name, f, produce)
	case sinkObject:
		s.upload(w, r, name, f, produce)
	default:
		fail(w, r, errs.Invalid("unknown export sink %q", sink))
	}
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, name string, f query.Format, produce func(query.RowWriter) (int64, error)) {
	dw := &downloadWriter{
		w:           w,
		contentType: f.ContentType(),
		filename:    fmt.Sprintf("%s.%s", name, f.Extension()),
	}
	n, err := produce(query.NewWriter(f, dw))
	if err != nil {
		if !dw.started {
			fail(w, r, err)
			return
		}
		// Headers are gone; the client sees a truncated file.
		logger.FromContext(r.Context()).ErrorWith("export aborted", err, map[string]any{"rows": n})
		return
	}
	if !dw.started {
		dw.start()
	}
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, name string, f query.Format, produce func(query.RowWriter) (int64, error)) {
	if s.sink == nil {
		fail(w, r, errs.Invalid("object storage export is not configured"))
		return
	}
	ctx := r.Context()
	cfg := s.cfg.Export
	key := filestore.ExportKey(cfg.Prefix, chi.URLParam(r, "db"), name, f.Extension(), time.Now())

	var rows int64
	info, err := filestore.Stream(ctx, s.sink, cfg.Bucket, key, f.ContentType(), func(out io.Writer) error {
		n, err := produce(query.NewWriter(f, out))
		rows = n
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	url, err := s.sink.PresignGetURL(ctx, info.Bucket, info.Key, cfg.PresignTTL)
	if err != nil {
		fail(w, r, err)
		return
	}

	logger.FromContext(ctx).InfoWith("export uploaded", map[string]any{
		"bucket": info.Bucket, "key": info.Key, "size": info.Size, "rows": rows,
	})
	ok(w, envelope{
		"bucket": info.Bucket,
		"key":    info.Key,
		"size":   info.Size,
		"rows":   rows,
		"url":    url,
	})
}

// downloadWriter sends attachment headers on the first write, so an export
// that fails before producing output can still answer with a JSON error.
type downloadWriter struct {
	w           http.ResponseWriter
	contentType string
	filename    string
	started     bool
}

func (d *downloadWriter) start() {
	d.started = true
	h := d.w.Header()
	h.Set("Content-Type", d.contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.filename))
	d.w.WriteHeader(http.StatusOK)
}

func (d *downloadWriter) Write(p []byte) (int, error) {
	if !d.started {
		d.start()
	}
	return d.w.Write(p)
}
