package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
	"github.com/qustavo/sqlhooks/v2"
)

// Handle is an open, pinged connection to one endpoint. Closing it also
// closes the SSH tunnel, if any.
type Handle struct {
	*sql.DB
	tunnel *Tunnel
}

// Open connects to the endpoint and verifies it with a ping. The pool is
// capped at one connection: a migration talks to each server over exactly
// one session.
func Open(ctx context.Context, cfg Config) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}

	var (
		tunnel *Tunnel
		err    error
	)
	drv := &pqDriver{}
	if cfg.Tunnel.Enabled() {
		tunnel, err = OpenTunnel(cfg.Tunnel, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SSH tunnel: %w", err)
		}
		drv.dialer = tunnel
	}

	db := sql.OpenDB(&connector{dsn: cfg.DSN, driver: wrapDriver(drv, cfg)})
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if tunnel != nil {
			tunnel.Close()
		}
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	return &Handle{DB: db, tunnel: tunnel}, nil
}

func (h *Handle) Close() error {
	err := h.DB.Close()
	if h.tunnel != nil {
		if terr := h.tunnel.Close(); err == nil {
			err = terr
		}
	}
	return err
}

// ServerVersion returns the server_version setting.
func (h *Handle) ServerVersion(ctx context.Context) (string, error) {
	var v string
	if err := h.QueryRowContext(ctx, "SHOW server_version").Scan(&v); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return v, nil
}

func wrapDriver(drv driver.Driver, cfg Config) driver.Driver {
	if !cfg.LogStatements {
		return drv
	}
	return sqlhooks.Wrap(drv, &statementLogger{log: cfg.Logger.With().Str("component", "sql").Logger()})
}

// pqDriver opens lib/pq connections, optionally through a custom dialer.
type pqDriver struct {
	dialer pq.Dialer
}

func (d *pqDriver) Open(name string) (driver.Conn, error) {
	if d.dialer == nil {
		return pq.Open(name)
	}
	return pq.DialOpen(d.dialer, name)
}

// connector binds a DSN to a driver so handles can be built with
// sql.OpenDB instead of registering a driver name per configuration.
type connector struct {
	dsn    string
	driver driver.Driver
}

// Connect returns when the dial finishes or ctx is done, whichever comes
// first. lib/pq dials without a context, so a connection that completes
// after cancellation is closed in the background.
func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	type result struct {
		conn driver.Conn
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		conn, err := c.driver.Open(c.dsn)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}
