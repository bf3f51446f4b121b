package dialect_test

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"db-mirror/internal/dialect"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGetDialect(t *testing.T) {
	d, err := dialect.GetDialect("postgres")
	require.NoError(t, err)
	assert.IsType(t, &dialect.PostgresDialect{}, d)

	_, err = dialect.GetDialect("mysql")
	assert.Error(t, err)
}

func TestForDSN(t *testing.T) {
	for _, dsn := range []string{
		"postgres://u@localhost/app",
		"PostgreSQL://u@localhost/app",
		"host=localhost dbname=app sslmode=disable",
	} {
		_, err := dialect.ForDSN(dsn)
		assert.NoError(t, err, dsn)
	}

	_, err := dialect.ForDSN("mysql://root@localhost/app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported driver "mysql"`)
}

func TestPostgres_ColumnDefinition(t *testing.T) {
	d := &dialect.PostgresDialect{}

	testCases := []struct {
		name     string
		col      string
		typ      string
		def      *string
		nullable bool
		expect   string
	}{
		{
			name:   "serial primary column",
			col:    "id",
			typ:    "integer",
			def:    strPtr("nextval('orders_id_seq'::regclass)"),
			expect: `"id" integer DEFAULT nextval('orders_id_seq'::regclass) NOT NULL`,
		},
		{
			name:     "nullable without default",
			col:      "note",
			typ:      "text",
			nullable: true,
			expect:   `"note" text`,
		},
		{
			name:     "default kept verbatim",
			col:      "created_at",
			typ:      "timestamp without time zone",
			def:      strPtr("CURRENT_TIMESTAMP"),
			nullable: true,
			expect:   `"created_at" timestamp without time zone DEFAULT CURRENT_TIMESTAMP`,
		},
		{
			name:   "mixed case name is quoted",
			col:    "CustomerID",
			typ:    "bigint",
			expect: `"CustomerID" bigint NOT NULL`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, d.ColumnDefinition(tc.col, tc.typ, tc.def, tc.nullable))
		})
	}
}

func TestPostgres_DDL(t *testing.T) {
	d := &dialect.PostgresDialect{}

	assert.Equal(t, `DROP TABLE IF EXISTS "public"."orders" CASCADE`, d.DropTableQuery("orders"))
	assert.Equal(t, `CREATE SEQUENCE IF NOT EXISTS orders_id_seq`, d.CreateSequenceQuery("orders_id_seq"))
	assert.Equal(t,
		`CREATE TABLE "public"."orders" ("id" integer NOT NULL, "total" numeric NOT NULL)`,
		d.CreateTableQuery("orders", []string{`"id" integer NOT NULL`, `"total" numeric NOT NULL`}),
	)
	assert.Equal(t, `CREATE TABLE "public"."empty" ()`, d.CreateTableQuery("empty", nil))
	assert.Equal(t, `ALTER SEQUENCE orders_id_seq RESTART WITH 3`, d.RestartSequenceQuery("orders_id_seq", 3))
	assert.Equal(t, `SELECT COALESCE(MAX("id"), 0) FROM "public"."orders"`, d.MaxValueQuery("orders", "id"))
}

func TestPostgres_GetColumnsQuery_HidesGeneratedExpressions(t *testing.T) {
	q := (&dialect.PostgresDialect{}).GetColumnsQuery()

	assert.Contains(t, q, "CASE WHEN a.attgenerated = '' THEN pg_get_expr(ad.adbin, ad.adrelid) END")
	assert.Equal(t, 1, strings.Count(q, "pg_get_expr"))
	assert.Contains(t, q, "ORDER BY a.attnum")
}

func TestPostgres_SelectRowsQuery(t *testing.T) {
	d := &dialect.PostgresDialect{}

	assert.Equal(t, `SELECT "id"::text, "total"::text FROM "public"."orders"`, d.SelectRowsQuery("orders", []string{"id", "total"}))
	assert.Equal(t, `SELECT FROM "public"."empty"`, d.SelectRowsQuery("empty", nil))
}

func TestPostgres_InsertQuery(t *testing.T) {
	d := &dialect.PostgresDialect{}

	assert.Equal(t,
		`INSERT INTO "public"."orders" ("id", "total") VALUES ($1, $2), ($3, $4)`,
		d.InsertQuery("orders", []string{"id", "total"}, 2),
	)
	assert.Equal(t,
		`INSERT INTO "public"."empty" SELECT FROM generate_series(1, $1)`,
		d.InsertEmptyRowsQuery("empty"),
	)
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func TestPostgres_InsertQuery_PlaceholdersAreContiguous(t *testing.T) {
	d := &dialect.PostgresDialect{}
	faker := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		cols := make([]string, faker.Number(1, 12))
		for j := range cols {
			cols[j] = fmt.Sprintf("%s_%d", faker.Word(), j)
		}
		rows := faker.Number(1, 30)

		query := d.InsertQuery(faker.Word(), cols, rows)

		matches := placeholderRe.FindAllStringSubmatch(query, -1)
		require.Len(t, matches, rows*len(cols))
		for k, m := range matches {
			assert.Equal(t, fmt.Sprint(k+1), m[1])
		}
		assert.Equal(t, rows, strings.Count(query, "($"))
	}
}

func TestRowsPerStatement(t *testing.T) {
	assert.Equal(t, 32767, dialect.RowsPerStatement(2, 65535))
	assert.Equal(t, 2, dialect.RowsPerStatement(2, 4))
	assert.Equal(t, 1, dialect.RowsPerStatement(10, 4))
	assert.Equal(t, 1, dialect.RowsPerStatement(0, 65535))
}

func TestPostgres_MaxParams(t *testing.T) {
	assert.Equal(t, 65535, (&dialect.PostgresDialect{}).MaxParams())
	assert.Equal(t, 4, (&dialect.PostgresDialect{ParamLimit: 4}).MaxParams())
}
