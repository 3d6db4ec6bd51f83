package config

// Default configuration values.
const (
	DefaultAddr      = "127.0.0.1:8080"
	DefaultDriver    = "mysql"
	DefaultStateFile = "dbdesk.db"
	DefaultMaxRows   = 100
	DefaultPageSize  = 20
	MaxPageSize      = 1000
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates sections: DBDESK_DATABASE__DSN sets database.dsn.
const EnvPrefix = "DBDESK_"

func defaults() map[string]any {
	return map[string]any{
		"server.addr":             DefaultAddr,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "5m",
		"server.shutdown_timeout": "15s",

		"database.driver":             DefaultDriver,
		"database.host":               "127.0.0.1",
		"database.max_conns":          10,
		"database.min_conns":          2,
		"database.max_conn_lifetime":  "30m",
		"database.max_conn_idle_time": "5m",
		"database.connect_timeout":    "10s",
		"database.query_timeout":      "60s",

		"log.level":       "info",
		"log.format":      "console",
		"log.time_format": "rfc3339",

		"records.default_page_size": DefaultPageSize,
		"records.max_page_size":     MaxPageSize,

		"query.max_rows": DefaultMaxRows,

		"export.bucket":      "dbdesk-exports",
		"export.prefix":      "exports",
		"export.presign_ttl": "15m",

		"state.path": DefaultStateFile,
	}
}
