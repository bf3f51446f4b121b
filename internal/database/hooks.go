package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const maxLoggedQuery = 240

type startedAtKey struct{}

// statementLogger implements sqlhooks.Hooks and sqlhooks.OnErrorer.
type statementLogger struct {
	log zerolog.Logger
}

func (h *statementLogger) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	return context.WithValue(ctx, startedAtKey{}, time.Now()), nil
}

func (h *statementLogger) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	h.log.Debug().
		Str("query", shorten(query)).
		Int("args", len(args)).
		Dur("elapsed", elapsed(ctx)).
		Msg("statement")
	return ctx, nil
}

func (h *statementLogger) OnError(ctx context.Context, err error, query string, args ...interface{}) error {
	h.log.Debug().
		Err(err).
		Str("query", shorten(query)).
		Int("args", len(args)).
		Dur("elapsed", elapsed(ctx)).
		Msg("statement failed")
	return err
}

func elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}

// shorten keeps multi-row inserts from flooding the log.
func shorten(query string) string {
	if len(query) <= maxLoggedQuery {
		return query
	}
	return query[:maxLoggedQuery] + "..."
}
