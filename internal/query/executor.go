// Package query runs operator-supplied SQL against the selected database
// and streams read results to row writers.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
)

// DefaultMaxRows caps the rows Execute returns for a read.
const DefaultMaxRows = 100

// Result is the outcome of Execute. Read results fill Columns and Rows;
// writes fill AffectedRows and InsertID.
type Result struct {
	Type         string   `json:"type"`
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowCount     int      `json:"rowCount"`
	Truncated    bool     `json:"truncated"`
	AffectedRows int64    `json:"affectedRows"`
	InsertID     int64    `json:"insertId"`
	Message      string   `json:"message"`
}

// Executor runs ad-hoc statements on one connection.
type Executor struct {
	q       database.Querier
	maxRows int
}

// NewExecutor returns an executor that returns at most maxRows rows per
// read. maxRows <= 0 means DefaultMaxRows.
func NewExecutor(q database.Querier, maxRows int) *Executor {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Executor{q: q, maxRows: maxRows}
}

// prepare trims whitespace and one trailing semicolon. The statement is
// otherwise sent as written.
func prepare(stmt string) (string, error) {
	s := strings.TrimSpace(stmt)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return "", errs.Invalid("query cannot be empty")
	}
	return s, nil
}

// Execute runs stmt. Reads return at most the executor's row cap, with
// Truncated set when more rows were available.
func (e *Executor) Execute(ctx context.Context, stmt string) (*Result, error) {
	s, err := prepare(stmt)
	if err != nil {
		return nil, err
	}
	kind := Classify(s)
	logger.FromContext(ctx).With().Str("kind", kind.String()).Logger().Debug("executing query")

	if kind == Write {
		return e.exec(ctx, s)
	}

	rows, err := e.q.Query(ctx, s)
	if err != nil {
		return nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	res := &Result{Type: kind.String(), Columns: columns, Rows: make([][]any, 0)}
	err = database.StreamRows(rows, func(_ []string, values []any) error {
		if len(res.Rows) == e.maxRows {
			res.Truncated = true
			return errStop
		}
		res.Rows = append(res.Rows, append([]any(nil), values...))
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}

	res.RowCount = len(res.Rows)
	res.Message = fmt.Sprintf("%d rows returned", res.RowCount)
	if res.Truncated {
		res.Message = fmt.Sprintf("showing first %d rows", res.RowCount)
	}
	return res, nil
}

var errStop = errors.New("row limit reached")

func (e *Executor) exec(ctx context.Context, s string) (*Result, error) {
	r, err := e.q.Exec(ctx, s)
	if err != nil {
		return nil, err
	}

	res := &Result{Type: Write.String(), AffectedRows: r.RowsAffected, InsertID: r.LastInsertID}
	switch firstKeyword(s) {
	case "INSERT":
		res.Message = fmt.Sprintf("Record inserted successfully. Insert ID: %d", r.LastInsertID)
	case "UPDATE":
		res.Message = fmt.Sprintf("Query executed successfully. %d row(s) affected", r.RowsAffected)
	case "DELETE":
		res.Message = fmt.Sprintf("Query executed successfully. %d row(s) deleted", r.RowsAffected)
	default:
		res.Message = "Query executed successfully"
	}
	return res, nil
}

// Export streams the result of a read statement into w without buffering
// it. The context is checked before every row.
func (e *Executor) Export(ctx context.Context, stmt string, w RowWriter) (int64, error) {
	s, err := prepare(stmt)
	if err != nil {
		return 0, err
	}
	if Classify(s) != Read {
		return 0, errs.Invalid("only read statements can be exported")
	}

	rows, err := e.q.Query(ctx, s)
	if err != nil {
		return 0, err
	}
	return WriteRows(ctx, rows, w)
}

// WriteRows copies rows into w, writing the header first. It closes rows.
func WriteRows(ctx context.Context, rows database.Rows, w RowWriter) (int64, error) {
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return 0, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}
	if err := w.Header(columns); err != nil {
		rows.Close()
		return 0, err
	}

	var n int64
	err = database.StreamRows(rows, func(_ []string, values []any) error {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(errs.ErrKindTimeout, "export cancelled", err)
		}
		n++
		return w.Row(values)
	})
	if err != nil {
		return n, err
	}
	return n, w.Flush()
}
