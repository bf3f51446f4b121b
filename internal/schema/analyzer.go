package schema

import (
	"context"
	"database/sql"
	"fmt"

	"db-mirror/internal/dialect"
)

// Querier is the read side of *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ListTables returns the base tables of the dialect's default schema, in the
// order the metadata query returns them (sorted by name).
func ListTables(ctx context.Context, db Querier, d dialect.Dialect) ([]string, error) {
	rows, err := db.QueryContext(ctx, d.GetTablesQuery(), d.DefaultSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	return tables, nil
}

// Columns returns the column descriptors of one table ordered by ordinal
// position.
func Columns(ctx context.Context, db Querier, d dialect.Dialect, table string) ([]*Column, error) {
	rows, err := db.QueryContext(ctx, d.GetColumnsQuery(), d.DefaultSchema(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var cols []*Column
	for rows.Next() {
		var (
			col      Column
			nullable bool
			def      sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", table, err)
		}
		col.Nullable = nullable
		if def.Valid {
			col.Default = &def.String
		}
		cols = append(cols, &col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return cols, nil
}

// Filter keeps the tables whose names appear in want, preserving order. An
// empty want keeps everything.
func Filter(names, want []string) []string {
	if len(want) == 0 {
		return names
	}
	req := make(map[string]bool, len(want))
	for _, w := range want {
		req[w] = true
	}
	var out []string
	for _, n := range names {
		if req[n] {
			out = append(out, n)
		}
	}
	return out
}
