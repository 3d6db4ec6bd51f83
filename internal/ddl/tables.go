package ddl

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

// DefaultEngine is used when CreateTableRequest.Engine is empty.
const DefaultEngine = "InnoDB"

var engines = []string{"InnoDB", "MyISAM", "MEMORY", "ARCHIVE", "CSV", "Aria"}

// CreateTableRequest describes a new table.
type CreateTableRequest struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
	Engine  string       `json:"engine"`
}

func canonicalEngine(engine string) (string, error) {
	if engine == "" {
		return DefaultEngine, nil
	}
	for _, e := range engines {
		if strings.EqualFold(e, engine) {
			return e, nil
		}
	}
	return "", errs.Invalid("unsupported engine %q (allowed: %s)", engine, strings.Join(engines, ", "))
}

// CreateTable creates a base table from column specs. Positions are
// ignored; columns are created in the order given.
func (o *Orchestrator) CreateTable(ctx context.Context, req CreateTableRequest) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if err := ValidateName("table", req.Name); err != nil {
		return nil, err
	}
	engine, err := canonicalEngine(req.Engine)
	if err != nil {
		return nil, err
	}
	if len(req.Columns) == 0 {
		return nil, errs.Invalid("table %q needs at least one column", req.Name)
	}

	seen := make(map[string]bool, len(req.Columns))
	defs := make([]string, 0, len(req.Columns))
	for _, col := range req.Columns {
		if err := ValidateName("column", col.Name); err != nil {
			return nil, err
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return nil, errs.Invalid("duplicate column %q", col.Name)
		}
		seen[key] = true
		if err := ValidateType(col.Type); err != nil {
			return nil, err
		}
		defs = append(defs, quote(col.Name)+" "+BuildDefinition(col))
	}

	exists, err := o.cat.Exists(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.New(errs.ErrKindConstraint, fmt.Sprintf("table %q already exists", req.Name))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (%s) ENGINE=%s", quote(req.Name), strings.Join(defs, ", "), engine)
	return o.run(ctx, fmt.Sprintf("Table '%s' created", req.Name), Plan{{Label: "create table", SQL: sql}})
}

// DropTable drops a table, or a view when name is one.
func (o *Orchestrator) DropTable(ctx context.Context, name string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	kind, err := o.cat.Kind(ctx, name)
	if err != nil {
		return nil, err
	}

	st := Statement{Label: "drop table", SQL: "DROP TABLE " + quote(name)}
	if kind == schema.KindView {
		st = Statement{Label: "drop view", SQL: "DROP VIEW " + quote(name)}
	}
	return o.run(ctx, fmt.Sprintf("'%s' dropped", name), Plan{st})
}

// RenameTable renames a table or view.
func (o *Orchestrator) RenameTable(ctx context.Context, oldName, newName string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if err := ValidateName("table", newName); err != nil {
		return nil, err
	}
	if oldName == newName {
		return nil, errs.Invalid("new name must differ from the current name")
	}
	if _, err := o.cat.Kind(ctx, oldName); err != nil {
		return nil, err
	}
	taken, err := o.cat.Exists(ctx, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.New(errs.ErrKindConstraint, fmt.Sprintf("table %q already exists", newName))
	}

	sql := fmt.Sprintf("RENAME TABLE %s TO %s", quote(oldName), quote(newName))
	return o.run(ctx, fmt.Sprintf("Table '%s' renamed to '%s'", oldName, newName), Plan{{Label: "rename table", SQL: sql}})
}
