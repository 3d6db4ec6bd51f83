package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DBDESK_DATABASE__USER", "root")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 60*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, DefaultMaxRows, cfg.Query.MaxRows)
	assert.Equal(t, DefaultPageSize, cfg.Records.DefaultPageSize)
	assert.Equal(t, DefaultStateFile, cfg.State.Path)
	assert.False(t, cfg.FilestoreConfig().Enabled)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
database:
  driver: Postgres
  dsn: postgres://file@localhost/app
  max_conns: 4
query:
  max_rows: 50
export:
  endpoint: localhost:9000
  presign_ttl: 1h
`)
	t.Setenv("DBDESK_DATABASE__DSN", "postgres://env@localhost/app")
	t.Setenv("DBDESK_QUERY__MAX_ROWS", "75")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-rows", 0, "")
	flags.String("addr", "", "")
	flags.String("database", "", "")
	require.NoError(t, flags.Parse([]string{"--max-rows=200", "--database=shop"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "unset flag must not override the file")
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://env@localhost/app", cfg.Database.DSN, "env overrides file")
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, 200, cfg.Query.MaxRows, "flag overrides env")
	assert.Empty(t, cfg.Database.Database, "unmapped flags are not configuration")

	fs := cfg.FilestoreConfig()
	assert.True(t, fs.Enabled)
	assert.Equal(t, time.Hour, fs.PresignTTL)
	assert.Equal(t, "dbdesk-exports", fs.Bucket)

	db := cfg.DatabaseConfig()
	assert.Equal(t, database.DriverPostgres, db.Driver)
	assert.Equal(t, int32(4), db.MaxConns)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "mysql", DSN: "root@tcp(localhost:3306)/", MaxConns: 5},
			Records:  RecordsConfig{DefaultPageSize: 20, MaxPageSize: 1000},
			Query:    QueryConfig{MaxRows: 100},
			State:    StateConfig{Path: ":memory:"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"no credentials", func(c *Config) { c.Database.DSN = "" }},
		{"zero pool", func(c *Config) { c.Database.MaxConns = 0 }},
		{"zero page size", func(c *Config) { c.Records.DefaultPageSize = 0 }},
		{"page size above max", func(c *Config) { c.Records.DefaultPageSize = 2000 }},
		{"zero max rows", func(c *Config) { c.Query.MaxRows = 0 }},
		{"no state path", func(c *Config) { c.State.Path = "" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.True(t, errs.IsInvalidInput(c.Validate()))
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.max_conns", envKey("DBDESK_DATABASE__MAX_CONNS"))
	assert.Equal(t, "state.path", envKey("DBDESK_STATE__PATH"))
}
