package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/spf13/cast"
)

// FormatValue renders a database value as text. NULL becomes the empty
// string, times are RFC 3339, arrays and objects are JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// RowWriter receives an exported result set one row at a time.
type RowWriter interface {
	Header(columns []string) error
	Row(values []any) error
	Flush() error
}

// Format names an export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat accepts csv, tsv and jsonl. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatTSV, FormatJSONL:
		return f, nil
	default:
		return "", errs.Invalid("unsupported export format %q (csv, tsv, jsonl)", s)
	}
}

// ContentType is the MIME type of the encoding.
func (f Format) ContentType() string {
	switch f {
	case FormatTSV:
		return "text/tab-separated-values"
	case FormatJSONL:
		return "application/x-ndjson"
	default:
		return "text/csv"
	}
}

// Extension is the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// NewWriter returns the RowWriter for f.
func NewWriter(f Format, w io.Writer) RowWriter {
	switch f {
	case FormatTSV:
		return NewTSVWriter(w)
	case FormatJSONL:
		return NewJSONLinesWriter(w)
	default:
		return NewCSVWriter(w)
	}
}

// --- csv ---

type csvWriter struct {
	w   *csv.Writer
	buf []string
}

// NewCSVWriter writes RFC 4180 CSV with a header line.
func NewCSVWriter(w io.Writer) RowWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) Header(columns []string) error {
	c.buf = make([]string, len(columns))
	return c.w.Write(columns)
}

func (c *csvWriter) Row(values []any) error {
	for i, v := range values {
		c.buf[i] = FormatValue(v)
	}
	return c.w.Write(c.buf[:len(values)])
}

func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// --- tsv ---

var tsvEscaper = strings.NewReplacer("\t", `\t`, "\n", `\n`, "\r", `\r`)

type tsvWriter struct {
	w   io.Writer
	buf []string
}

// NewTSVWriter writes tab-separated values. Tabs and line breaks inside
// values are written as \t, \n and \r.
func NewTSVWriter(w io.Writer) RowWriter {
	return &tsvWriter{w: w}
}

func (t *tsvWriter) Header(columns []string) error {
	t.buf = make([]string, len(columns))
	return t.line(columns)
}

func (t *tsvWriter) Row(values []any) error {
	for i, v := range values {
		t.buf[i] = FormatValue(v)
	}
	return t.line(t.buf[:len(values)])
}

func (t *tsvWriter) line(fields []string) error {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = tsvEscaper.Replace(f)
	}
	_, err := io.WriteString(t.w, strings.Join(escaped, "\t")+"\n")
	return err
}

func (t *tsvWriter) Flush() error { return nil }

// --- jsonl ---

type jsonlWriter struct {
	enc     *json.Encoder
	columns []string
}

// NewJSONLinesWriter writes one JSON object per row keyed by column name.
// No header line is written.
func NewJSONLinesWriter(w io.Writer) RowWriter {
	return &jsonlWriter{enc: json.NewEncoder(w)}
}

func (j *jsonlWriter) Header(columns []string) error {
	j.columns = columns
	return nil
}

func (j *jsonlWriter) Row(values []any) error {
	obj := make(map[string]any, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		obj[j.columns[i]] = v
	}
	return j.enc.Encode(obj)
}

func (j *jsonlWriter) Flush() error { return nil }
