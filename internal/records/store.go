package records

import (
	"context"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/query"
	"github.com/koustreak/dbdesk/internal/schema"
)

// Describer loads a table descriptor. *schema.Introspector implements it.
type Describer interface {
	Describe(ctx context.Context, table string) (*schema.TableDescriptor, error)
}

// Store runs record operations on one connection.
type Store struct {
	q         database.Querier
	describer Describer
	limits    Limits
}

// NewStore returns a Store executing on q. Descriptors are loaded through
// describer on every call.
func NewStore(q database.Querier, describer Describer, limits Limits) *Store {
	return &Store{q: q, describer: describer, limits: limits}
}

func (s *Store) dialect() database.Dialect {
	return s.q.Dialect()
}

// SelectPage returns one page of table plus the number of rows matching
// the filters.
func (s *Store) SelectPage(ctx context.Context, table string, req PageRequest) (*Page, error) {
	desc, err := s.describer.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	req = s.limits.normalize(req)

	countSQL, countArgs, err := BuildCount(desc, s.dialect(), req.Filters)
	if err != nil {
		return nil, err
	}
	pageSQL, pageArgs, err := BuildSelectPage(desc, s.dialect(), req)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, err
	}
	records, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		renderRecord(desc, rec)
	}

	return &Page{Records: records, Total: total, Offset: req.Offset, Limit: req.Limit}, nil
}

// SelectOne returns the row addressed by id. Dates and times are rendered
// in the form the server accepts back.
func (s *Store) SelectOne(ctx context.Context, table string, id Identity) (map[string]any, error) {
	desc, err := s.describer.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	sql, args, err := BuildSelectOne(desc, s.dialect(), id)
	if err != nil {
		return nil, err
	}

	rec, err := database.ScanRow(s.q.QueryRow(ctx, sql, args...), desc.ColumnNames())
	if err != nil {
		return nil, err
	}
	return renderRecord(desc, rec), nil
}

// Insert adds a row and reports its identity.
func (s *Store) Insert(ctx context.Context, table string, values Values) (*InsertResult, error) {
	desc, err := s.describer.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	sql, args, err := BuildInsert(desc, s.dialect(), values)
	if err != nil {
		return nil, err
	}

	res := &InsertResult{Column: desc.PrimaryKey}
	if s.dialect() == database.DialectPostgres && desc.PrimaryKey != "" {
		var id any
		if err := s.q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			return nil, err
		}
		res.ID = id
	} else {
		r, err := s.q.Exec(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		res.ID = insertedID(desc, values, r)
	}

	logger.FromContext(ctx).With().Str("table", table).Any("id", res.ID).Logger().Info("record inserted")
	return res, nil
}

// insertedID prefers the generated id for auto-increment keys and the
// supplied value otherwise.
func insertedID(desc *schema.TableDescriptor, values Values, r database.Result) any {
	if desc.PrimaryKey == "" {
		return nil
	}
	col, _ := desc.Column(desc.PrimaryKey)
	if col.AutoIncrement || values[desc.PrimaryKey] == nil {
		if r.LastInsertID != 0 {
			return r.LastInsertID
		}
	}
	return values[desc.PrimaryKey]
}

// Update changes the row addressed by id and returns the rows affected.
func (s *Store) Update(ctx context.Context, table string, id Identity, values Values) (int64, error) {
	desc, err := s.describer.Describe(ctx, table)
	if err != nil {
		return 0, err
	}
	sql, args, err := BuildUpdate(desc, s.dialect(), id, values)
	if err != nil {
		return 0, err
	}
	return s.execOne(ctx, sql, args)
}

// Delete removes the row addressed by id and returns the rows affected.
func (s *Store) Delete(ctx context.Context, table string, id Identity) (int64, error) {
	desc, err := s.describer.Describe(ctx, table)
	if err != nil {
		return 0, err
	}
	sql, args, err := BuildDelete(desc, s.dialect(), id)
	if err != nil {
		return 0, err
	}
	return s.execOne(ctx, sql, args)
}

func (s *Store) execOne(ctx context.Context, sql string, args []any) (int64, error) {
	r, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	if r.RowsAffected == 0 {
		return 0, errs.NotFound("record not found")
	}
	return r.RowsAffected, nil
}

// Export streams every row of table matching req's filters and sort into
// w. Paging fields of req are ignored.
func (s *Store) Export(ctx context.Context, table string, req PageRequest, w query.RowWriter) (int64, error) {
	desc, err := s.describer.Describe(ctx, table)
	if err != nil {
		return 0, err
	}
	sql, args, err := BuildSelectAll(desc, s.dialect(), req)
	if err != nil {
		return 0, err
	}
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return query.WriteRows(ctx, rows, &renderWriter{RowWriter: w, desc: desc})
}
