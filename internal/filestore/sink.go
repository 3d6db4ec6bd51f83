// Package filestore defines where exported result sets are stored.
//
// Providers implement Sink; callers depend only on this package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	sink, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer sink.Close()
//
//	info, err := filestore.Stream(ctx, sink, cfg.Bucket, key, "text/csv", func(w io.Writer) error {
//	    ...
//	})
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`

	// Size is the byte size of the object. -1 if unknown.
	Size int64 `json:"size"`

	ContentType  string    `json:"contentType"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"lastModified"`
}

// Sink stores exported files.
type Sink interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Put stores everything read from r at key inside bucket. The size is
	// not known in advance.
	Put(ctx context.Context, bucket, key string, r io.Reader, contentType string) (*ObjectInfo, error)

	// PresignGetURL returns a time-limited URL that allows anyone to download
	// the object at key inside bucket without credentials.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Stream runs produce with a writer connected to sink.Put through a pipe,
// so the export is uploaded while it is generated. A produce error aborts
// the upload and is returned.
func Stream(ctx context.Context, sink Sink, bucket, key, contentType string, produce func(w io.Writer) error) (*ObjectInfo, error) {
	pr, pw := io.Pipe()

	produced := make(chan error, 1)
	go func() {
		err := produce(pw)
		pw.CloseWithError(err)
		produced <- err
	}()

	info, putErr := sink.Put(ctx, bucket, key, pr, contentType)
	// Unblock the producer if Put returned without draining the pipe.
	pr.CloseWithError(io.ErrClosedPipe)
	prodErr := <-produced

	switch {
	case prodErr != nil && !errors.Is(prodErr, io.ErrClosedPipe):
		return nil, prodErr
	case putErr != nil:
		return nil, putErr
	case prodErr != nil:
		return nil, prodErr
	}
	return info, nil
}

// ExportKey builds a unique object key of the form
// <prefix>/<database>/<name>-<timestamp>-<id>.<ext>.
func ExportKey(prefix, database, name, ext string, now time.Time) string {
	file := fmt.Sprintf("%s-%s-%s.%s",
		sanitize(name), now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8], ext)
	return path.Join(strings.Trim(prefix, "/"), sanitize(database), file)
}

func sanitize(s string) string {
	if s == "" {
		return "query"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
