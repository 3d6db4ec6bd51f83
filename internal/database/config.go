package database

import "time"

// Driver identifies the database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Valid reports whether d names a supported engine.
func (d Driver) Valid() bool {
	return d == DriverPostgres || d == DriverMySQL
}

// Config holds all settings needed to connect to and pool a database.
type Config struct {
	// Driver is the database engine (e.g. DriverMySQL).
	Driver Driver

	// DSN is the full data source name / connection string. When empty the
	// drivers build one from the discrete fields below.
	// Example: "root:secret@tcp(localhost:3306)/"
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Database string // initial database; requests switch with SelectDatabase
	SSLMode  string // postgres only

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing a new connection
	QueryTimeout   time.Duration // per-request deadline applied by the server
}

// DefaultConfig returns pool settings sized for an interactive admin tool:
// a handful of concurrent requests, each holding one connection.
func DefaultConfig(driver Driver, dsn string) *Config {
	return &Config{
		Driver:          driver,
		DSN:             dsn,
		Host:            "127.0.0.1",
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		QueryTimeout:    60 * time.Second,
	}
}
