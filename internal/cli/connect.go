package cli

import (
	"context"

	"github.com/koustreak/dbdesk/internal/config"
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/database/mysql"
	"github.com/koustreak/dbdesk/internal/database/postgres"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

// connect opens the pool for the configured driver.
func connect(ctx context.Context, cfg *config.Config) (database.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	switch dbCfg.Driver {
	case database.DriverMySQL:
		d, err := mysql.New(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case database.DriverPostgres:
		d, err := postgres.New(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, errs.Invalid("unsupported database driver %q", dbCfg.Driver)
	}
}

// withDatabase borrows a connection, selects name after checking it
// against the visible databases and runs fn.
func withDatabase(ctx context.Context, db database.DB, name string, fn func(conn database.Conn) error) error {
	if name == "" {
		return errs.Invalid("--database is required")
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	found, err := schema.New(conn).HasDatabase(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return errs.NotFound("database %q not found", name)
	}
	if err := conn.SelectDatabase(ctx, name); err != nil {
		return err
	}
	return fn(conn)
}
