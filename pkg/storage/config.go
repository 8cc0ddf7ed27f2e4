package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config selects and parameterizes the active storage backend.
type Config struct {
	Backend  string         `toml:"backend"`
	Sqlite   SqliteConfig   `toml:"sqlite"`
	Postgres PostgresConfig `toml:"postgres"`
}

// SqliteConfig holds embedded-store parameters.
type SqliteConfig struct {
	Path string `toml:"path"`
}

// PostgresConfig holds warehouse connection parameters.
type PostgresConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend    string
	SqlitePath string
	PgHost     string
	PgPort     string
	PgName     string
	PgUser     string
	PgPassword string
	PgSSLMode  string
}

// BackendType returns the configured backend as a typed value.
func (c *Config) BackendType() Backend {
	return Backend(strings.ToLower(c.Backend))
}

// DSN returns the sqlite connection string.
func (c *SqliteConfig) DSN() string {
	return c.Path
}

// Dsn returns a PostgreSQL connection string.
func (c *PostgresConfig) Dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *PostgresConfig) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Sqlite.Path != "" {
		c.Sqlite.Path = overlay.Sqlite.Path
	}
	p := &c.Postgres
	o := &overlay.Postgres
	if o.Host != "" {
		p.Host = o.Host
	}
	if o.Port != 0 {
		p.Port = o.Port
	}
	if o.Name != "" {
		p.Name = o.Name
	}
	if o.User != "" {
		p.User = o.User
	}
	if o.Password != "" {
		p.Password = o.Password
	}
	if o.SSLMode != "" {
		p.SSLMode = o.SSLMode
	}
	if o.MaxOpenConns != 0 {
		p.MaxOpenConns = o.MaxOpenConns
	}
	if o.MaxIdleConns != 0 {
		p.MaxIdleConns = o.MaxIdleConns
	}
	if o.ConnMaxLifetime != "" {
		p.ConnMaxLifetime = o.ConnMaxLifetime
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = string(BackendSqlite)
	}
	if c.Sqlite.Path == "" {
		c.Sqlite.Path = "data/burnwatch.db"
	}
	p := &c.Postgres
	if p.Host == "" {
		p.Host = "localhost"
	}
	if p.Port == 0 {
		p.Port = 5432
	}
	if p.SSLMode == "" {
		p.SSLMode = "disable"
	}
	if p.MaxOpenConns == 0 {
		p.MaxOpenConns = 25
	}
	if p.MaxIdleConns == 0 {
		p.MaxIdleConns = 5
	}
	if p.ConnMaxLifetime == "" {
		p.ConnMaxLifetime = "15m"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name != "" {
			if v := os.Getenv(name); v != "" {
				*dst = v
			}
		}
	}
	set(env.Backend, &c.Backend)
	set(env.SqlitePath, &c.Sqlite.Path)
	set(env.PgHost, &c.Postgres.Host)
	set(env.PgName, &c.Postgres.Name)
	set(env.PgUser, &c.Postgres.User)
	set(env.PgPassword, &c.Postgres.Password)
	set(env.PgSSLMode, &c.Postgres.SSLMode)
	if env.PgPort != "" {
		if v := os.Getenv(env.PgPort); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Postgres.Port = port
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.BackendType() {
	case BackendSqlite:
		if c.Sqlite.Path == "" {
			return fmt.Errorf("sqlite path required")
		}
	case BackendPostgres:
		if c.Postgres.Name == "" {
			return fmt.Errorf("postgres name required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user required")
		}
		if _, err := time.ParseDuration(c.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid conn_max_lifetime: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
	return nil
}
