// Package records reads and writes rows of a single table, addressed by
// primary key, with every identifier checked against the table's live
// descriptor and every value bound as a parameter.
package records

// Identity addresses one row by its primary-key column and value.
type Identity struct {
	Column string
	Value  any
}

// Values maps column names to client-supplied values.
type Values map[string]any

// Filters maps column names to filter expressions. See the package filter
// policy in filter.go.
type Filters map[string]string

// PageRequest selects one page of a table.
type PageRequest struct {
	Offset     int
	Limit      int
	SortColumn string
	SortOrder  string
	Filters    Filters
}

// Page is one page of rows plus the filtered row count.
type Page struct {
	Records []map[string]any `json:"records"`
	Total   int64            `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

// InsertResult reports the identity of an inserted row. ID is nil when the
// table has no single-column primary key.
type InsertResult struct {
	Column string `json:"column,omitempty"`
	ID     any    `json:"insertId"`
}

// Limits bounds page sizes.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits returns a page size of 20 capped at 1000.
func DefaultLimits() Limits {
	return Limits{DefaultPageSize: 20, MaxPageSize: 1000}
}

// normalize applies the paging rules: a non-positive limit becomes the
// default, a limit above the maximum is capped and a negative offset is 0.
func (l Limits) normalize(req PageRequest) PageRequest {
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = 20
	}
	if req.Limit <= 0 {
		req.Limit = l.DefaultPageSize
	}
	if l.MaxPageSize > 0 && req.Limit > l.MaxPageSize {
		req.Limit = l.MaxPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return req
}
