package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/koustreak/dbdesk/internal/query"
	"github.com/koustreak/dbdesk/internal/schema"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func renderTables(w io.Writer, tables []schema.TableSummary) {
	if len(tables) == 0 {
		_, _ = fmt.Fprintln(w, "(no tables)")
		return
	}
	t := newTable(w, "Name", "Kind", "Size")
	for _, tb := range tables {
		size := "-"
		if tb.Kind == schema.KindTable {
			size = formatBytes(tb.Size)
		}
		t.AppendRow(table.Row{tb.Name, tb.Kind, size})
	}
	t.Render()
}

func renderColumns(w io.Writer, desc *schema.TableDescriptor) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", desc.Name, desc.Kind)
	t := newTable(w, "Column", "Type", "Null", "Key", "Default", "Extra")
	for _, c := range desc.Columns {
		null := "NO"
		if c.Nullable {
			null = "YES"
		}
		def := "NULL"
		if c.Default != nil {
			def = *c.Default
		}
		key := ""
		if c.Key != schema.KeyNone {
			key = string(c.Key)
		}
		t.AppendRow(table.Row{c.Name, c.RawType, null, key, def, c.Extra})
	}
	t.Render()
}

func renderResult(w io.Writer, res *query.Result) {
	if res.Type != query.Read.String() {
		_, _ = fmt.Fprintln(w, res.Message)
		return
	}
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	header := make([]any, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t := newTable(w, header...)
	for _, row := range res.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				r[i] = "NULL"
				continue
			}
			r[i] = query.FormatValue(v)
		}
		t.AppendRow(r)
	}
	t.Render()
	_, _ = fmt.Fprintln(w, res.Message)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
