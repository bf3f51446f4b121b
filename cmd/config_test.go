package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"db-mirror/internal/database"
	"db-mirror/internal/engine"
	"db-mirror/internal/schema"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
connections:
  - name: neon
    dsn: postgres://app@neon.example.com/app
    ssh:
      host: bastion.example.com
      user: deploy
      key_file: ~/.ssh/id_ed25519
  - name: local
    dsn: postgres://localhost/app?sslmode=disable
source: neon
destination: local
migration:
  on_error: continue
  batch_size: 500
  tables: [orders, customers]
  log_statements: true
metrics:
  file: /var/lib/node_exporter/db_mirror.prom
`

func loadYAML(t *testing.T, doc string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return LoadConfig(v)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadYAML(t, sampleConfig)
	require.NoError(t, err)

	require.Len(t, cfg.Connections, 2)
	assert.Equal(t, "bastion.example.com", cfg.Connections[0].SSH.Host)
	assert.Equal(t, "/var/lib/node_exporter/db_mirror.prom", cfg.Metrics.File)

	src, dst, err := cfg.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app@neon.example.com/app", src.DSN)
	assert.True(t, src.Tunnel.Enabled())
	assert.Equal(t, "bastion.example.com:22", src.Tunnel.Addr())
	assert.True(t, src.LogStatements)
	assert.Equal(t, "postgres://localhost/app?sslmode=disable", dst.DSN)
	assert.False(t, dst.Tunnel.Enabled())

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, engine.PolicyContinue, opts.OnTableError)
	assert.Equal(t, 500, opts.BatchSize)
	assert.Equal(t, []string{"orders", "customers"}, opts.Tables)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing dsn",
			doc:  "connections:\n  - name: a\n",
			want: "DSN: cannot be blank",
		},
		{
			name: "duplicate names",
			doc:  "connections:\n  - {name: a, dsn: x}\n  - {name: a, dsn: y}\n",
			want: `duplicate connection name "a"`,
		},
		{
			name: "bad policy",
			doc:  "migration:\n  on_error: retry\n",
			want: "OnError",
		},
		{
			name: "negative batch",
			doc:  "migration:\n  batch_size: -1\n",
			want: "BatchSize",
		},
		{
			name: "tunnel without user",
			doc:  "connections:\n  - {name: a, dsn: x, ssh: {host: bastion, key_file: k}}\n",
			want: "User: cannot be blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEndpoints(t *testing.T) {
	t.Run("literal dsns", func(t *testing.T) {
		cfg := &Config{Source: "postgres://a/src", Destination: "postgres://a/dst"}
		src, dst, err := cfg.Endpoints()
		require.NoError(t, err)
		assert.Equal(t, database.Config{DSN: "postgres://a/src"}, src)
		assert.Equal(t, "postgres://a/dst", dst.DSN)
	})

	t.Run("missing destination", func(t *testing.T) {
		cfg := &Config{Source: "postgres://a/src"}
		_, _, err := cfg.Endpoints()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "destination is required")
	})

	t.Run("same database", func(t *testing.T) {
		cfg := &Config{
			Connections: []Connection{{Name: "prod", DSN: "postgres://a/app"}},
			Source:      "prod",
			Destination: "postgres://a/app",
		}
		_, _, err := cfg.Endpoints()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same database")
	})
}

func TestPrintReport(t *testing.T) {
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &engine.Report{
		Started:  started,
		Finished: started.Add(1500 * time.Millisecond),
		Tables: []engine.TableResult{
			{Name: "orders", Rows: 2, Sequences: []string{"orders_id_seq"}},
			{Name: "broken", Err: errors.New(`table "broken": drop table: pq: denied`)},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "[✓] [01/02] orders")
	assert.Contains(t, out, "2 rows - sequences: orders_id_seq")
	assert.Contains(t, out, "[!] [02/02] broken")
	assert.Contains(t, out, `└ Error: table "broken": drop table: pq: denied`)
	assert.Contains(t, out, "Total Rows: 2 (1 failed tables) in 1.5s")
}

func TestPrintPlan(t *testing.T) {
	plans := []engine.TablePlan{{
		Table: &schema.Table{Name: "orders", Columns: []*schema.Column{{Name: "id"}}},
		Statements: []engine.Statement{
			{Phase: engine.PhaseDrop, SQL: `DROP TABLE IF EXISTS "public"."orders" CASCADE`},
			{Phase: engine.PhaseCreate, SQL: `CREATE TABLE "public"."orders" ("id" integer NOT NULL)`},
		},
	}}

	var buf bytes.Buffer
	printPlan(&buf, plans)

	assert.Contains(t, buf.String(), "-- [01] orders (1 columns)\n")
	assert.Contains(t, buf.String(), `DROP TABLE IF EXISTS "public"."orders" CASCADE;`)
	assert.Contains(t, buf.String(), `CREATE TABLE "public"."orders" ("id" integer NOT NULL);`)
}
