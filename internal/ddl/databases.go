package ddl

import (
	"context"
	"fmt"
	"regexp"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

const (
	DefaultCharset   = "utf8mb4"
	DefaultCollation = "utf8mb4_unicode_ci"
)

var charsetPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// CreateDatabase creates a database with the given character set and
// collation, falling back to utf8mb4 / utf8mb4_unicode_ci.
func (o *Orchestrator) CreateDatabase(ctx context.Context, name, charset, collation string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if err := ValidateName("database", name); err != nil {
		return nil, err
	}
	if charset == "" {
		charset = DefaultCharset
	}
	if collation == "" {
		collation = DefaultCollation
	}
	if !charsetPattern.MatchString(charset) {
		return nil, errs.Invalid("invalid character set %q", charset)
	}
	if !charsetPattern.MatchString(collation) {
		return nil, errs.Invalid("invalid collation %q", collation)
	}

	sql := fmt.Sprintf("CREATE DATABASE %s CHARACTER SET %s COLLATE %s", quote(name), charset, collation)
	return o.run(ctx, fmt.Sprintf("Database '%s' created", name), Plan{{Label: "create database", SQL: sql}})
}

// DropDatabase drops a user database. System schemas are refused.
func (o *Orchestrator) DropDatabase(ctx context.Context, name string) (*Result, error) {
	if err := o.requireMySQL(); err != nil {
		return nil, err
	}
	if schema.IsSystemSchema(name) {
		return nil, errs.Invalid("cannot drop system database %q", name)
	}
	ok, err := o.cat.HasDatabase(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound("database %q not found", name)
	}

	return o.run(ctx, fmt.Sprintf("Database '%s' dropped", name), Plan{{Label: "drop database", SQL: "DROP DATABASE " + quote(name)}})
}
