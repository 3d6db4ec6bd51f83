package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	objects map[string]string
	failPut error
}

func (m *memorySink) Ping(context.Context) error { return nil }
func (m *memorySink) Close() error               { return nil }

func (m *memorySink) Put(_ context.Context, bucket, key string, r io.Reader, contentType string) (*ObjectInfo, error) {
	if m.failPut != nil {
		return nil, m.failPut
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.objects[bucket+"/"+key] = string(b)
	return &ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(b)), ContentType: contentType}, nil
}

func (m *memorySink) PresignGetURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "http://sink/" + bucket + "/" + key, nil
}

func TestStream(t *testing.T) {
	sink := &memorySink{objects: map[string]string{}}

	info, err := Stream(context.Background(), sink, "exports", "a.csv", "text/csv", func(w io.Writer) error {
		for _, line := range []string{"id\n", "1\n", "2\n"} {
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size)
	assert.Equal(t, "id\n1\n2\n", sink.objects["exports/a.csv"])
}

func TestStream_ProducerError(t *testing.T) {
	sink := &memorySink{objects: map[string]string{}}
	boom := errs.New(errs.ErrKindQueryFailed, "query failed")

	_, err := Stream(context.Background(), sink, "exports", "a.csv", "text/csv", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, sink.objects)
}

func TestStream_PutError(t *testing.T) {
	denied := errs.New(errs.ErrKindPermissionDenied, "access denied")
	sink := &memorySink{failPut: denied}

	_, err := Stream(context.Background(), sink, "exports", "a.csv", "text/csv", func(w io.Writer) error {
		_, err := io.WriteString(w, strings.Repeat("x", 1<<16))
		return err
	})
	assert.True(t, errs.IsPermissionDenied(err))
}

func TestExportKey(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	key := ExportKey("/exports/", "shop", "users list", "csv", now)

	assert.True(t, strings.HasPrefix(key, "exports/shop/users_list-20240301T123000Z-"), key)
	assert.True(t, strings.HasSuffix(key, ".csv"))
	assert.NotEqual(t, key, ExportKey("exports", "shop", "users list", "csv", now))
	assert.True(t, strings.HasPrefix(ExportKey("", "shop", "", "jsonl", now), "shop/query-"))
}
