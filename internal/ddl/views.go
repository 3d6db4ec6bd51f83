package ddl

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/schema"
)

// viewBody captures the SELECT of a SHOW CREATE VIEW statement.
var viewBody = regexp.MustCompile("(?is)\\bVIEW\\s+(?:`(?:[^`]|``)*`(?:\\.`(?:[^`]|``)*`)?|\\S+)\\s+AS\\s+(.+)$")

// viewAlgorithm and viewSecurity capture the options of a
// SHOW CREATE VIEW statement.
var (
	viewAlgorithm = regexp.MustCompile(`(?i)\bALGORITHM\s*=\s*(UNDEFINED|MERGE|TEMPTABLE)\b`)
	viewSecurity  = regexp.MustCompile(`(?i)\bSQL\s+SECURITY\s+(DEFINER|INVOKER)\b`)
)

// ExtractSelect returns the query part of a CREATE VIEW statement.
func ExtractSelect(createView string) (string, error) {
	m := viewBody.FindStringSubmatch(createView)
	if m == nil {
		return "", errs.New(errs.ErrKindQueryFailed, "could not extract SELECT from view definition")
	}
	return strings.TrimSpace(m[1]), nil
}

// definerClause renders user@host as `user`@`host`.
func definerClause(account string) string {
	user, host := account, "%"
	if at := strings.LastIndex(account, "@"); at >= 0 {
		user, host = account[:at], account[at+1:]
	}
	return quote(user) + "@" + quote(host)
}

// FixViewDefiner makes the current account the definer of view. It runs a
// single ALTER VIEW that keeps the algorithm, security type and query, so
// a failure leaves the view as it was.
func (o *Orchestrator) FixViewDefiner(ctx context.Context, view string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	plan, err := o.fixDefinerPlan(ctx, view)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, fmt.Sprintf("View '%s' definer updated", view), plan)
}

func (o *Orchestrator) fixDefinerPlan(ctx context.Context, view string) (Plan, error) {
	kind, err := o.cat.Kind(ctx, view)
	if err != nil {
		return nil, err
	}
	if kind != schema.KindView {
		return nil, errs.Invalid("%q is a table, not a view", view)
	}
	source, err := o.cat.ViewSource(ctx, view)
	if err != nil {
		return nil, err
	}
	body, err := ExtractSelect(source)
	if err != nil {
		return nil, err
	}
	user, err := o.cat.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	var opts strings.Builder
	if m := viewAlgorithm.FindStringSubmatch(source); m != nil {
		opts.WriteString(" ALGORITHM=" + strings.ToUpper(m[1]))
	}
	opts.WriteString(" DEFINER=" + definerClause(user))
	if m := viewSecurity.FindStringSubmatch(source); m != nil {
		opts.WriteString(" SQL SECURITY " + strings.ToUpper(m[1]))
	}

	return Plan{
		{Label: "alter view definer", SQL: fmt.Sprintf("ALTER%s VIEW %s AS %s", opts.String(), quote(view), body)},
	}, nil
}

// ViewFix is the outcome for one view of FixAllViewDefiners.
type ViewFix struct {
	View    string `json:"view"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FixAllViewDefiners runs FixViewDefiner on every view in the selected
// database. A failing view is recorded and the rest still run.
func (o *Orchestrator) FixAllViewDefiners(ctx context.Context) ([]ViewFix, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	views, err := o.cat.ListViews(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	results := make([]ViewFix, 0, len(views))
	for _, v := range views {
		fix := ViewFix{View: v.Name, Success: true}
		if _, err := o.FixViewDefiner(ctx, v.Name); err != nil {
			fix.Success = false
			fix.Error = errs.Message(err)
			log.ErrorWith("fix view definer failed", err, map[string]any{"view": v.Name})
		}
		results = append(results, fix)
	}
	return results, nil
}
