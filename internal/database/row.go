package database

import "github.com/koustreak/dbdesk/internal/errs"

// ScanRows reads all rows from the result set and returns them as a slice
// of maps, where each key is the column name and each value is the Go-native
// representation of the DB value.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows — callers do not need to call Close().
func ScanRows(rows Rows) ([]map[string]any, error) {
	result := make([]map[string]any, 0)
	err := StreamRows(rows, func(columns []string, values []any) error {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StreamRows calls fn once per row without buffering the result set.
// The values slice is reused between calls; fn must copy what it keeps.
// Iteration stops at the first error returned by fn. StreamRows always
// closes the Rows.
func StreamRows(rows Rows, fn func(columns []string, values []any) error) error {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	// Allocate scan targets as *any so the driver can write any type.
	dest := make([]any, len(columns))
	destPtrs := make([]any, len(columns))
	for i := range dest {
		destPtrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(destPtrs...); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		for i, v := range dest {
			dest[i] = normalize(v)
		}
		if err := fn(columns, dest); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}
	return nil
}

// ScanRow reads a single row and returns it as a map.
// Returns ErrKindNotFound if the row does not exist.
func ScanRow(row Row, columns []string) (map[string]any, error) {
	dest := make([]any, len(columns))
	destPtrs := make([]any, len(columns))
	for i := range dest {
		destPtrs[i] = &dest[i]
	}

	if err := row.Scan(destPtrs...); err != nil {
		if errs.IsNotFound(err) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan single row", err)
	}

	result := make(map[string]any, len(columns))
	for i, col := range columns {
		result[col] = normalize(dest[i])
	}
	return result, nil
}

// normalize turns the []byte that database/sql hands back for MySQL text
// columns into a string so results encode as JSON text, not base64.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
