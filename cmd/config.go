package cmd

import (
	"fmt"

	"db-mirror/internal/database"
	"db-mirror/internal/engine"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Connection is one entry of the connections list. Source and destination
// may name an entry or hold a DSN directly.
type Connection struct {
	Name string                `mapstructure:"name"`
	DSN  string                `mapstructure:"dsn"`
	SSH  database.TunnelConfig `mapstructure:"ssh"`
}

func (c Connection) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.SSH),
	)
}

type MigrationConfig struct {
	OnError       string   `mapstructure:"on_error"`
	BatchSize     int      `mapstructure:"batch_size"`
	Tables        []string `mapstructure:"tables"`
	LogStatements bool     `mapstructure:"log_statements"`
}

func (m MigrationConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OnError, validation.In("abort", "continue", "skip")),
		validation.Field(&m.BatchSize, validation.Min(0)),
	)
}

type MetricsConfig struct {
	File string `mapstructure:"file"`
}

type Config struct {
	Connections []Connection    `mapstructure:"connections"`
	Source      string          `mapstructure:"source"`
	Destination string          `mapstructure:"destination"`
	Migration   MigrationConfig `mapstructure:"migration"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Connections, validation.By(uniqueNames)),
		validation.Field(&c.Migration),
	)
}

func uniqueNames(value interface{}) error {
	conns, _ := value.([]Connection)
	seen := make(map[string]bool, len(conns))
	for _, c := range conns {
		if seen[c.Name] {
			return fmt.Errorf("duplicate connection name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// LoadConfig reads the merged flag, environment and file settings.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Endpoint resolves a connection name or a literal DSN.
func (c *Config) Endpoint(ref string) (database.Config, error) {
	if ref == "" {
		return database.Config{}, fmt.Errorf("connection is empty")
	}
	for _, conn := range c.Connections {
		if conn.Name == ref {
			return database.Config{DSN: conn.DSN, Tunnel: conn.SSH, LogStatements: c.Migration.LogStatements}, nil
		}
	}
	return database.Config{DSN: ref, LogStatements: c.Migration.LogStatements}, nil
}

// Endpoints resolves source and destination and refuses a run that would
// drop tables on the source itself.
func (c *Config) Endpoints() (src, dst database.Config, err error) {
	if c.Source == "" {
		return src, dst, fmt.Errorf("source is required (--source, config or DBMIRROR_SOURCE)")
	}
	if c.Destination == "" {
		return src, dst, fmt.Errorf("destination is required (--destination, config or DBMIRROR_DESTINATION)")
	}

	if src, err = c.Endpoint(c.Source); err != nil {
		return src, dst, err
	}
	if dst, err = c.Endpoint(c.Destination); err != nil {
		return src, dst, err
	}

	if src.DSN == dst.DSN && src.Tunnel == dst.Tunnel {
		return src, dst, fmt.Errorf("source and destination are the same database")
	}
	return src, dst, nil
}

// Options maps the migration section onto engine options.
func (c *Config) Options() (engine.Options, error) {
	policy, err := engine.ParsePolicy(c.Migration.OnError)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Tables:       c.Migration.Tables,
		OnTableError: policy,
		BatchSize:    c.Migration.BatchSize,
	}, nil
}
