package database

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
)

// Config describes one endpoint of a migration.
type Config struct {
	// DSN is a lib/pq connection string, URL or key=value form.
	DSN string

	// Tunnel, when Host is set, routes the connection through SSH.
	Tunnel TunnelConfig

	// LogStatements logs every statement at debug level.
	LogStatements bool

	Logger zerolog.Logger
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.Tunnel),
	)
}

// TunnelConfig holds the SSH jump host settings.
type TunnelConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	KeyFile        string `mapstructure:"key_file"`
	KnownHostsFile string `mapstructure:"known_hosts"`
}

func (t TunnelConfig) Enabled() bool {
	return t.Host != ""
}

func (t TunnelConfig) Addr() string {
	port := t.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", t.Host, port)
}

func (t TunnelConfig) Validate() error {
	if !t.Enabled() {
		return nil
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.Host, validation.Required, is.Host),
		validation.Field(&t.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&t.User, validation.Required),
		validation.Field(&t.KeyFile, validation.Required),
	)
}
