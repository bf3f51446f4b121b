package engine

import (
	"context"

	"db-mirror/internal/database"
	"db-mirror/internal/dialect"
)

// Migrate copies every base table of the source's public schema to the
// destination. It opens one connection per endpoint, runs the migration and
// closes both connections before returning.
func Migrate(ctx context.Context, source, destination database.Config, opts Options) (*Report, error) {
	if _, err := dialect.ForDSN(source.DSN); err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: "source", Phase: PhaseConnect, Err: err}
	}
	d, err := dialect.ForDSN(destination.DSN)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: "destination", Phase: PhaseConnect, Err: err}
	}

	src, err := database.Open(ctx, source)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: "source", Phase: PhaseConnect, Err: err}
	}
	defer src.Close()

	dst, err := database.Open(ctx, destination)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: "destination", Phase: PhaseConnect, Err: err}
	}
	defer dst.Close()

	return New(src.DB, dst.DB, d, opts).Run(ctx)
}

// MigrateDSN is Migrate for two plain connection strings.
func MigrateDSN(ctx context.Context, source, destination string, opts Options) (*Report, error) {
	return Migrate(ctx,
		database.Config{DSN: source, Logger: opts.Logger},
		database.Config{DSN: destination, Logger: opts.Logger},
		opts,
	)
}
