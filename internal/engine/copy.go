package engine

import (
	"context"
	"database/sql"

	"db-mirror/internal/dialect"
	"db-mirror/internal/schema"
)

// copyRows reads the source table and inserts its rows through tx. Values
// are carried as text (nil for NULL) in column order.
func (m *Migrator) copyRows(ctx context.Context, tx *sql.Tx, table *schema.Table) (int64, error) {
	rows, err := m.src.QueryContext(ctx, m.dialect.SelectRowsQuery(table.Name, table.ColumnNames()))
	if err != nil {
		return 0, tableError(table.Name, PhaseRead, err)
	}
	defer rows.Close()

	var (
		buf    [][]any
		copied int64
	)
	for rows.Next() {
		row, err := scanRow(rows, len(table.Columns))
		if err != nil {
			return copied, tableError(table.Name, PhaseRead, err)
		}
		buf = append(buf, row)

		if m.opts.BatchSize > 0 && len(buf) >= m.opts.BatchSize {
			if err := m.insertRows(ctx, tx, table, buf); err != nil {
				return copied, err
			}
			copied += int64(len(buf))
			buf = buf[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return copied, tableError(table.Name, PhaseRead, err)
	}

	if err := m.insertRows(ctx, tx, table, buf); err != nil {
		return copied, err
	}
	copied += int64(len(buf))

	return copied, nil
}

func scanRow(rows *sql.Rows, width int) ([]any, error) {
	vals := make([]sql.NullString, width)
	ptrs := make([]any, width)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make([]any, width)
	for i, v := range vals {
		if v.Valid {
			row[i] = v.String
		}
	}
	return row, nil
}

// insertRows writes rows with multi-row INSERT statements, as few as the
// dialect's bind parameter limit allows. An empty slice is a no-op.
func (m *Migrator) insertRows(ctx context.Context, tx *sql.Tx, table *schema.Table, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	width := len(table.Columns)
	if width == 0 {
		if _, err := tx.ExecContext(ctx, m.dialect.InsertEmptyRowsQuery(table.Name), len(rows)); err != nil {
			return tableError(table.Name, PhaseInsert, err)
		}
		return nil
	}

	cols := table.ColumnNames()
	per := dialect.RowsPerStatement(width, m.dialect.MaxParams())
	for start := 0; start < len(rows); start += per {
		chunk := rows[start:min(start+per, len(rows))]

		args := make([]any, 0, len(chunk)*width)
		for _, r := range chunk {
			args = append(args, r...)
		}

		if _, err := tx.ExecContext(ctx, m.dialect.InsertQuery(table.Name, cols, len(chunk)), args...); err != nil {
			return tableError(table.Name, PhaseInsert, err)
		}
	}
	return nil
}
