package config

import (
	"time"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/filestore"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/records"
)

// Config is the complete runtime configuration of dbdesk.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Records  RecordsConfig  `koanf:"records"`
	Query    QueryConfig    `koanf:"query"`
	Export   ExportConfig   `koanf:"export"`
	State    StateConfig    `koanf:"state"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the connection and pool settings of the managed server.
type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	DSN      string `koanf:"dsn"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"sslmode"`

	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	TimeFormat string `koanf:"time_format"`
}

type RecordsConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

type QueryConfig struct {
	MaxRows int `koanf:"max_rows"`
}

// ExportConfig configures the object-storage export sink. The sink is
// disabled while Endpoint is empty.
type ExportConfig struct {
	Endpoint   string        `koanf:"endpoint"`
	AccessKey  string        `koanf:"access_key"`
	SecretKey  string        `koanf:"secret_key"`
	UseSSL     bool          `koanf:"use_ssl"`
	Region     string        `koanf:"region"`
	Bucket     string        `koanf:"bucket"`
	Prefix     string        `koanf:"prefix"`
	PresignTTL time.Duration `koanf:"presign_ttl"`
}

// StateConfig locates the local SQLite state file.
type StateConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig converts the database section for the drivers.
func (c *Config) DatabaseConfig() *database.Config {
	d := c.Database
	return &database.Config{
		Driver:          database.Driver(d.Driver),
		DSN:             d.DSN,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
		ConnectTimeout:  d.ConnectTimeout,
		QueryTimeout:    d.QueryTimeout,
	}
}

// LoggerConfig converts the log section. Output is left to the logger's default.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	if c.Log.TimeFormat != "" {
		cfg.TimeFormat = c.Log.TimeFormat
	}
	return cfg
}

// FilestoreConfig converts the export section.
func (c *Config) FilestoreConfig() *filestore.Config {
	e := c.Export
	cfg := filestore.DefaultConfig(e.Endpoint, e.AccessKey, e.SecretKey)
	cfg.Enabled = e.Endpoint != ""
	cfg.UseSSL = e.UseSSL
	cfg.Region = e.Region
	if e.Bucket != "" {
		cfg.Bucket = e.Bucket
	}
	if e.Prefix != "" {
		cfg.Prefix = e.Prefix
	}
	if e.PresignTTL > 0 {
		cfg.PresignTTL = e.PresignTTL
	}
	return cfg
}

// RecordLimits converts the records section.
func (c *Config) RecordLimits() records.Limits {
	return records.Limits{
		DefaultPageSize: c.Records.DefaultPageSize,
		MaxPageSize:     c.Records.MaxPageSize,
	}
}
