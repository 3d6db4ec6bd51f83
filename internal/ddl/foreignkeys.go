package ddl

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
)

// DefaultAction applies to ON DELETE and ON UPDATE when left empty.
const DefaultAction = "RESTRICT"

var fkActions = map[string]bool{
	"RESTRICT":  true,
	"CASCADE":   true,
	"SET NULL":  true,
	"NO ACTION": true,
}

// ForeignKeySpec describes a constraint to add.
type ForeignKeySpec struct {
	Name      string `json:"name"`
	Column    string `json:"column"`
	RefTable  string `json:"refTable"`
	RefColumn string `json:"refColumn"`
	OnDelete  string `json:"onDelete"`
	OnUpdate  string `json:"onUpdate"`
}

func normalizeAction(action string) (string, error) {
	a := strings.ToUpper(strings.Join(strings.Fields(action), " "))
	if a == "" {
		return DefaultAction, nil
	}
	if !fkActions[a] {
		return "", errs.Invalid("invalid referential action %q", action)
	}
	return a, nil
}

// AddForeignKey adds a single-column foreign key from table to
// spec.RefTable. The constraint is named fk_<table>_<column> unless
// spec.Name is set.
func (o *Orchestrator) AddForeignKey(ctx context.Context, table string, spec ForeignKeySpec) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if spec.Column == "" || spec.RefTable == "" || spec.RefColumn == "" {
		return nil, errs.Invalid("column, refTable and refColumn are required")
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("fk_%s_%s", table, spec.Column)
	}
	if err := ValidateName("constraint", spec.Name); err != nil {
		return nil, err
	}
	onDelete, err := normalizeAction(spec.OnDelete)
	if err != nil {
		return nil, err
	}
	onUpdate, err := normalizeAction(spec.OnUpdate)
	if err != nil {
		return nil, err
	}

	desc, err := o.describeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if _, ok := desc.Column(spec.Column); !ok {
		return nil, errs.NotFound("column %q not found in %q", spec.Column, table)
	}
	ref, err := o.describeTable(ctx, spec.RefTable)
	if err != nil {
		return nil, err
	}
	if _, ok := ref.Column(spec.RefColumn); !ok {
		return nil, errs.NotFound("column %q not found in %q", spec.RefColumn, spec.RefTable)
	}

	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		quote(table), quote(spec.Name), quote(spec.Column), quote(spec.RefTable), quote(spec.RefColumn), onDelete, onUpdate)
	return o.run(ctx, fmt.Sprintf("Foreign key '%s' added", spec.Name), Plan{{Label: "add foreign key", SQL: sql}})
}

// DropForeignKey drops the named constraint from table.
func (o *Orchestrator) DropForeignKey(ctx context.Context, table, name string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	fks, err := o.cat.ListForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	found := false
	for _, fk := range fks {
		if fk.Name == name {
			found = true
			break
		}
	}
	if !found {
		return nil, errs.NotFound("foreign key %q not found on %q", name, table)
	}

	sql := fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", quote(table), quote(name))
	return o.run(ctx, fmt.Sprintf("Foreign key '%s' dropped", name), Plan{{Label: "drop foreign key", SQL: sql}})
}
