package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// pgMaxParams is the bind parameter ceiling of the PostgreSQL wire protocol
// (parameter count is an Int16 in the Bind message).
const pgMaxParams = 65535

type PostgresDialect struct {
	// ParamLimit overrides the bind parameter ceiling. Zero means the
	// protocol maximum.
	ParamLimit int
}

func (d *PostgresDialect) DefaultSchema() string {
	return "public"
}

func (d *PostgresDialect) GetTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`
}

func (d *PostgresDialect) GetColumnsQuery() string {
	// format_type keeps type modifiers (varchar(40), numeric(10,2), int4[])
	// which information_schema.columns.data_type drops.
	// pg_attrdef also stores the expression of GENERATED ... STORED columns;
	// like information_schema's column_default, report no default for them
	// so they are recreated as plain columns holding the copied values.
	return `SELECT
    a.attname,
    format_type(a.atttypid, a.atttypmod),
    NOT a.attnotnull,
    CASE WHEN a.attgenerated = '' THEN pg_get_expr(ad.adbin, ad.adrelid) END
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
WHERE n.nspname = $1
  AND c.relname = $2
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) table(name string) string {
	return d.QuoteIdent(d.DefaultSchema()) + "." + d.QuoteIdent(name)
}

func (d *PostgresDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.table(table))
}

// CreateSequenceQuery expects the name exactly as it appears inside a
// nextval('...') default. PostgreSQL prints regclass literals already
// quoted and schema-qualified where needed, so the text is used verbatim.
func (d *PostgresDialect) CreateSequenceQuery(sequence string) string {
	return fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", sequence)
}

func (d *PostgresDialect) ColumnDefinition(name, dataType string, defaultExpr *string, nullable bool) string {
	def := d.QuoteIdent(name) + " " + dataType
	if defaultExpr != nil {
		def += " DEFAULT " + *defaultExpr
	}
	if !nullable {
		def += " NOT NULL"
	}
	return def
}

func (d *PostgresDialect) CreateTableQuery(table string, columnDefs []string) string {
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.table(table), strings.Join(columnDefs, ", "))
}

// SelectRowsQuery reads every column as its text representation. Text
// parameters are typed by the destination column on insert, so values of
// any type (arrays, json, bytea, enums) go through the server's own input
// functions instead of the driver's Go conversions.
func (d *PostgresDialect) SelectRowsQuery(table string, cols []string) string {
	exprs := make([]string, len(cols))
	for i, c := range cols {
		exprs[i] = d.QuoteIdent(c) + "::text"
	}
	if len(exprs) == 0 {
		return "SELECT FROM " + d.table(table)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), d.table(table))
}

func (d *PostgresDialect) InsertQuery(table string, cols []string, rows int) string {
	tuples := make([]string, rows)
	for r := 0; r < rows; r++ {
		tuples[r] = "(" + GeneratePlaceholders(len(cols), r*len(cols), d.Placeholder) + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.table(table), QuoteAll(cols, d.QuoteIdent), strings.Join(tuples, ", "))
}

// InsertEmptyRowsQuery inserts $1 rows into a table that has no columns.
func (d *PostgresDialect) InsertEmptyRowsQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s SELECT FROM generate_series(1, $1)", d.table(table))
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) MaxParams() int {
	if d.ParamLimit > 0 {
		return d.ParamLimit
	}
	return pgMaxParams
}

func (d *PostgresDialect) MaxValueQuery(table, column string) string {
	return fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s", d.QuoteIdent(column), d.table(table))
}

func (d *PostgresDialect) RestartSequenceQuery(sequence string, next int64) string {
	return fmt.Sprintf("ALTER SEQUENCE %s RESTART WITH %d", sequence, next)
}
