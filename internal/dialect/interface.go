package dialect

// Dialect abstracts the SQL text the migration issues against a server.
type Dialect interface {
	// Metadata Queries (Schema Introspection)
	DefaultSchema() string
	GetTablesQuery() string  // $1 = schema
	GetColumnsQuery() string // $1 = schema, $2 = table

	// DDL
	QuoteIdent(name string) string
	DropTableQuery(table string) string
	CreateSequenceQuery(sequence string) string
	ColumnDefinition(name, dataType string, defaultExpr *string, nullable bool) string
	CreateTableQuery(table string, columnDefs []string) string

	// Data Transfer
	SelectRowsQuery(table string, cols []string) string
	InsertQuery(table string, cols []string, rows int) string
	InsertEmptyRowsQuery(table string) string
	Placeholder(index int) string // Returns $1, $2, ...
	MaxParams() int

	// Sequence Reconciliation
	MaxValueQuery(table, column string) string
	RestartSequenceQuery(sequence string, next int64) string
}
