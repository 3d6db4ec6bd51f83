// Package config loads dbdesk settings with koanf.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/spf13/pflag"
)

// flagKeys maps CLI flag names to config keys. Flags not listed here are
// command arguments, not configuration.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"driver":     "database.driver",
	"dsn":        "database.dsn",
	"host":       "database.host",
	"port":       "database.port",
	"user":       "database.user",
	"password":   "database.password",
	"log-level":  "log.level",
	"log-format": "log.format",
	"max-rows":   "query.max_rows",
	"state":      "state.path",
}

// findConfigFile returns explicit when set, otherwise the first of
// dbdesk.yaml and dbdesk.yml in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"dbdesk.yaml", "dbdesk.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey turns DBDESK_DATABASE__MAX_CONNS into database.max_conns.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Load reads the configuration. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if !database.Driver(c.Database.Driver).Valid() {
		return errs.Invalid("unsupported database driver %q (want mysql or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" && c.Database.User == "" {
		return errs.Invalid("database.dsn or database.user is required")
	}
	if c.Database.MaxConns <= 0 {
		return errs.Invalid("database.max_conns must be positive")
	}
	if c.Records.DefaultPageSize <= 0 || c.Records.MaxPageSize <= 0 {
		return errs.Invalid("records page sizes must be positive")
	}
	if c.Records.DefaultPageSize > c.Records.MaxPageSize {
		return errs.Invalid("records.default_page_size exceeds records.max_page_size")
	}
	if c.Query.MaxRows <= 0 {
		return errs.Invalid("query.max_rows must be positive")
	}
	if c.State.Path == "" {
		return errs.Invalid("state.path is required")
	}
	return nil
}
