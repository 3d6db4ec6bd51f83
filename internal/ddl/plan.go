// Package ddl plans and applies schema changes.
//
// Every operation follows the same shape: check the identifiers it was
// given (new names against a pattern, existing names against the catalog),
// turn the request into a Plan of labelled statements, then Apply the plan
// one statement at a time. Catalog changes are not transactional, so a
// failure part-way through is reported as an *errs.StepError saying how
// many statements already took effect.
package ddl

import (
	"context"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/schema"
)

// Statement is one step of a Plan.
type Statement struct {
	Label string
	SQL   string
}

// Plan is an ordered list of statements.
type Plan []Statement

// SQL returns the statements' text in order.
func (p Plan) SQL() []string {
	out := make([]string, len(p))
	for i, st := range p {
		out[i] = st.SQL
	}
	return out
}

// Catalog is the part of the schema introspector the orchestrator needs to
// validate a request.
type Catalog interface {
	Describe(ctx context.Context, table string) (*schema.TableDescriptor, error)
	Kind(ctx context.Context, name string) (schema.TableKind, error)
	Exists(ctx context.Context, name string) (bool, error)
	ListForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error)
	HasDatabase(ctx context.Context, name string) (bool, error)
	ViewSource(ctx context.Context, view string) (string, error)
	ListViews(ctx context.Context) ([]schema.ViewInfo, error)
	CurrentUser(ctx context.Context) (string, error)
}

var _ Catalog = (*schema.Introspector)(nil)

// Result is what a successful operation reports back.
type Result struct {
	Message    string   `json:"message"`
	Statements []string `json:"statements"`
}

// Orchestrator validates, plans and applies schema changes on one
// connection.
type Orchestrator struct {
	q   database.Querier
	cat Catalog
}

// New returns an orchestrator that executes on q and validates against cat.
func New(q database.Querier, cat Catalog) *Orchestrator {
	return &Orchestrator{q: q, cat: cat}
}

// Apply executes plan in order and stops at the first failing statement.
func (o *Orchestrator) Apply(ctx context.Context, plan Plan) error {
	log := logger.FromContext(ctx)
	total := len(plan)

	for i, st := range plan {
		stepLog := log.With().
			Int("step", i+1).
			Int("total", total).
			Str("label", st.Label).
			Str("statement", st.SQL).
			Logger()

		if _, err := o.q.Exec(ctx, st.SQL); err != nil {
			stepLog.ErrorWith("ddl step failed", err, map[string]any{"committed": i})
			return &errs.StepError{
				Step:      i + 1,
				Total:     total,
				Label:     st.Label,
				Committed: i,
				Err:       err,
			}
		}
		stepLog.Info("ddl step applied")
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, message string, plan Plan) (*Result, error) {
	if err := o.Apply(ctx, plan); err != nil {
		return nil, err
	}
	return &Result{Message: message, Statements: plan.SQL()}, nil
}

func (o *Orchestrator) requireMySQL() error {
	if o.q.Dialect() != database.DialectMySQL {
		return errs.Invalid("schema changes are only supported on MySQL")
	}
	return nil
}

// describeTable loads a base table, rejecting views.
func (o *Orchestrator) describeTable(ctx context.Context, table string) (*schema.TableDescriptor, error) {
	desc, err := o.cat.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if desc.IsView() {
		return nil, errs.Invalid("%q is a view; alter the view definition instead", table)
	}
	return desc, nil
}

func quote(name string) string {
	return database.DialectMySQL.QuoteIdent(name)
}
