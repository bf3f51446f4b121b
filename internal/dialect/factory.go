package dialect

import (
	"fmt"
	"strings"
)

// GetDialect returns the Dialect implementation for a driver name.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql", "pq":
		return &PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: only postgres is supported", driver)
	}
}

// ForDSN picks the dialect from a connection string's URL scheme.
// Key=value strings are lib/pq's own format.
func ForDSN(dsn string) (Dialect, error) {
	if i := strings.Index(dsn, "://"); i > 0 {
		return GetDialect(strings.ToLower(dsn[:i]))
	}
	return GetDialect("postgres")
}

// Ensure interface implementation
var _ Dialect = (*PostgresDialect)(nil)
