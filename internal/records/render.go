package records

import (
	"time"

	"github.com/koustreak/dbdesk/internal/query"
	"github.com/koustreak/dbdesk/internal/schema"
)

// Layouts temporal values are read back in. They are the literal forms
// MySQL accepts on write, so a value read from a row can be sent back
// unchanged.
const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.999999"
	timeLayout     = "15:04:05.999999"
)

// renderValue formats driver time values for col's base type. Everything
// else is returned as is.
func renderValue(col *schema.ColumnDescriptor, v any) any {
	t, ok := v.(time.Time)
	if !ok || col == nil {
		return v
	}
	switch col.BaseType {
	case schema.Date:
		return t.Format(dateLayout)
	case schema.DateTime:
		return t.Format(datetimeLayout)
	case schema.Time:
		return t.Format(timeLayout)
	}
	return v
}

func renderRecord(desc *schema.TableDescriptor, rec map[string]any) map[string]any {
	for name, v := range rec {
		col, _ := desc.Column(name)
		rec[name] = renderValue(col, v)
	}
	return rec
}

// renderWriter applies renderValue before handing rows to an export
// writer.
type renderWriter struct {
	query.RowWriter
	desc *schema.TableDescriptor
	cols []*schema.ColumnDescriptor
	buf  []any
}

func (r *renderWriter) Header(columns []string) error {
	r.cols = make([]*schema.ColumnDescriptor, len(columns))
	for i, name := range columns {
		r.cols[i], _ = r.desc.Column(name)
	}
	r.buf = make([]any, len(columns))
	return r.RowWriter.Header(columns)
}

func (r *renderWriter) Row(values []any) error {
	for i, v := range values {
		r.buf[i] = renderValue(r.cols[i], v)
	}
	return r.RowWriter.Row(r.buf[:len(values)])
}
