package ddl

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

func validateSpec(spec ColumnSpec) error {
	if err := ValidateName("column", spec.Name); err != nil {
		return err
	}
	return ValidateType(spec.Type)
}

// AddColumn adds spec to table at spec.Position.
func (o *Orchestrator) AddColumn(ctx context.Context, table string, spec ColumnSpec) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	pos, err := ParsePosition(spec.Position)
	if err != nil {
		return nil, err
	}

	desc, err := o.describeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if _, ok := desc.Column(spec.Name); ok {
		return nil, errs.New(errs.ErrKindConstraint, fmt.Sprintf("column %q already exists in %q", spec.Name, table))
	}
	if pos.Kind == AfterColumn {
		if _, ok := desc.Column(pos.Column); !ok {
			return nil, errs.Invalid("cannot place column after %q: no such column in %q", pos.Column, table)
		}
	}

	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s", quote(table), quote(spec.Name), BuildDefinition(spec), pos.Clause())
	return o.run(ctx, fmt.Sprintf("Column '%s' added", spec.Name), Plan{{Label: "add column", SQL: sql}})
}

// ModifyColumn redefines column oldName as spec, renaming it when
// spec.Name differs. Key changes are separate statements: keys are added
// after the redefinition and dropped last.
func (o *Orchestrator) ModifyColumn(ctx context.Context, table, oldName string, spec ColumnSpec) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = oldName
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	desc, err := o.describeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	old, ok := desc.Column(oldName)
	if !ok {
		return nil, errs.NotFound("column %q not found in %q", oldName, table)
	}
	renamed := spec.Name != oldName
	if renamed {
		if _, clash := desc.Column(spec.Name); clash && !strings.EqualFold(spec.Name, oldName) {
			return nil, errs.New(errs.ErrKindConstraint, fmt.Sprintf("column %q already exists in %q", spec.Name, table))
		}
	}
	if old.Key == schema.KeyPrimary && !spec.Primary && len(desc.PrimaryKeys) > 1 {
		return nil, errs.Invalid("column %q is part of a composite primary key", oldName)
	}

	return o.run(ctx, fmt.Sprintf("Column '%s' updated", spec.Name), modifyPlan(table, old, spec))
}

func modifyPlan(table string, old *schema.ColumnDescriptor, spec ColumnSpec) Plan {
	t := quote(table)
	body := spec
	body.Primary, body.Unique = false, false
	def := BuildDefinition(body)

	var plan Plan
	if spec.Name != old.Name {
		plan = append(plan, Statement{
			Label: "rename column",
			SQL:   fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN %s %s %s", t, quote(old.Name), quote(spec.Name), def),
		})
	} else {
		plan = append(plan, Statement{
			Label: "modify column",
			SQL:   fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", t, quote(spec.Name), def),
		})
	}

	wasPrimary := old.Key == schema.KeyPrimary
	wasUnique := old.UniqueIndex != "" || old.Key == schema.KeyUnique

	if spec.Primary && !wasPrimary {
		plan = append(plan, Statement{Label: "add primary key", SQL: fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", t, quote(spec.Name))})
	}
	if spec.Unique && !wasUnique {
		plan = append(plan, Statement{Label: "add unique key", SQL: fmt.Sprintf("ALTER TABLE %s ADD UNIQUE (%s)", t, quote(spec.Name))})
	}
	if !spec.Primary && wasPrimary {
		plan = append(plan, Statement{Label: "drop primary key", SQL: fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", t)})
	}
	if !spec.Unique && wasUnique {
		index := old.UniqueIndex
		if index == "" {
			index = old.Name
		}
		plan = append(plan, Statement{Label: "drop unique key", SQL: fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", t, quote(index))})
	}
	return plan
}

// DropColumn removes column from table.
func (o *Orchestrator) DropColumn(ctx context.Context, table, column string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	desc, err := o.describeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if _, ok := desc.Column(column); !ok {
		return nil, errs.NotFound("column %q not found in %q", column, table)
	}
	if len(desc.Columns) == 1 {
		return nil, errs.Invalid("cannot drop the only column of %q; drop the table instead", table)
	}

	sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quote(table), quote(column))
	return o.run(ctx, fmt.Sprintf("Column '%s' dropped", column), Plan{{Label: "drop column", SQL: sql}})
}
