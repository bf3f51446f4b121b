package schema_test

import (
	"fmt"
	"testing"

	"db-mirror/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestSequenceName(t *testing.T) {
	testCases := []struct {
		name   string
		expr   string
		expect string
		ok     bool
	}{
		{name: "serial default", expr: "nextval('orders_id_seq'::regclass)", expect: "orders_id_seq", ok: true},
		{name: "schema qualified", expr: "nextval('billing.invoice_seq'::regclass)", expect: "billing.invoice_seq", ok: true},
		{name: "quoted identifier", expr: `nextval('"Order_id_seq"'::regclass)`, expect: `"Order_id_seq"`, ok: true},
		{name: "escaped quote", expr: `nextval('"it''s_seq"'::regclass)`, expect: `"it's_seq"`, ok: true},
		{name: "no cast", expr: "nextval('plain_seq')", expect: "plain_seq", ok: true},
		{name: "upper case call", expr: "NEXTVAL('up_seq'::regclass)", expect: "up_seq", ok: true},
		{name: "qualified function", expr: "pg_catalog.nextval('q_seq'::regclass)", expect: "q_seq", ok: true},
		{name: "inside expression", expr: "('X-'::text || nextval('code_seq'::regclass))", expect: "code_seq", ok: true},
		{name: "current timestamp", expr: "CURRENT_TIMESTAMP", ok: false},
		{name: "string literal default", expr: "'nextval'::text", ok: false},
		{name: "empty literal", expr: "nextval(''::regclass)", ok: false},
		{name: "empty", expr: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := schema.SequenceName(tc.expr)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestSequenceName_SerialDefaults(t *testing.T) {
	faker := gofakeit.New(7)

	for i := 0; i < 100; i++ {
		seq := fmt.Sprintf("%s_%s_seq", faker.Word(), faker.Word())
		got, ok := schema.SequenceName(fmt.Sprintf("nextval('%s'::regclass)", seq))
		assert.True(t, ok)
		assert.Equal(t, seq, got)
	}
}

func strPtr(s string) *string { return &s }

func TestTable_SequenceColumns(t *testing.T) {
	table := &schema.Table{
		Name: "orders",
		Columns: []*schema.Column{
			{Name: "id", DataType: "integer", Default: strPtr("nextval('orders_id_seq'::regclass)")},
			{Name: "created_at", DataType: "timestamp", Default: strPtr("CURRENT_TIMESTAMP"), Nullable: true},
			{Name: "alt_id", DataType: "bigint", Default: strPtr("nextval('orders_id_seq'::regclass)")},
			{Name: "ref", DataType: "integer", Default: strPtr("nextval('ref_seq'::regclass)")},
			{Name: "note", DataType: "text", Nullable: true},
		},
	}

	refs := table.SequenceColumns()

	assert.Equal(t, []schema.SequenceRef{
		{Name: "orders_id_seq", Columns: []string{"id", "alt_id"}},
		{Name: "ref_seq", Columns: []string{"ref"}},
	}, refs)
	assert.Equal(t, []string{"id", "created_at", "alt_id", "ref", "note"}, table.ColumnNames())
}
