package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"db-mirror/internal/dialect"
	"db-mirror/internal/schema"

	"github.com/rs/zerolog"
)

// Policy decides what happens after a table fails.
type Policy int

const (
	PolicyAbort    Policy = iota // stop the run at the first failed table
	PolicyContinue               // record the failure and move to the next table
)

func (p Policy) String() string {
	if p == PolicyContinue {
		return "continue"
	}
	return "abort"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "continue", "skip":
		return PolicyContinue, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown table error policy %q (want abort or continue)", s)
	}
}

type Options struct {
	// Tables restricts the run to these table names (exact match).
	Tables []string

	OnTableError Policy

	// BatchSize > 0 streams source rows and inserts every BatchSize rows.
	// Zero loads the whole table before inserting.
	BatchSize int

	Logger    zerolog.Logger
	Observers []Observer
}

// Migrator owns the two connections of a single run.
type Migrator struct {
	src       *sql.DB
	dst       *sql.DB
	dialect   dialect.Dialect
	opts      Options
	log       zerolog.Logger
	observers []Observer

	// restarts remembers the RESTART WITH value committed for each sequence
	// so a sequence shared by several tables never moves backwards.
	restarts map[string]int64
}

func New(src, dst *sql.DB, d dialect.Dialect, opts Options) *Migrator {
	log := opts.Logger.With().Str("component", "engine").Logger()
	m := &Migrator{
		src:      src,
		dst:      dst,
		dialect:  d,
		opts:     opts,
		log:      log,
		restarts: make(map[string]int64),
	}
	m.observers = append(m.observers, NewLoggingObserver(log))
	m.observers = append(m.observers, opts.Observers...)
	return m
}

func (m *Migrator) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

func (m *Migrator) notify(event Event) {
	event.Timestamp = time.Now()
	for _, o := range m.observers {
		o.OnEvent(event)
	}
}

// Statement is one DDL statement of a table's recreate step.
type Statement struct {
	Phase Phase
	SQL   string
}

// TablePlan is the DDL a run would issue for one table.
type TablePlan struct {
	Table      *schema.Table
	Statements []Statement
}

// Run migrates every selected table in order. With PolicyAbort the first
// failure ends the run; with PolicyContinue the returned error joins every
// table failure. The report is returned in both cases.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{Started: time.Now()}

	names, err := m.tables(ctx)
	if err != nil {
		report.Finished = time.Now()
		return report, err
	}

	total := len(names)
	m.notify(Event{Type: EventRunStarted, Total: total})

	var failures []error
	for i, name := range names {
		m.notify(Event{Type: EventTableStarted, Table: name, Index: i + 1, Total: total})

		start := time.Now()
		res, err := m.migrateTable(ctx, name)
		res.Duration = time.Since(start)
		res.Err = err
		report.Tables = append(report.Tables, res)

		if err != nil {
			m.notify(Event{Type: EventTableFailed, Table: name, Index: i + 1, Total: total, Duration: res.Duration, Err: err})
			if m.opts.OnTableError == PolicyAbort || ctx.Err() != nil {
				report.Finished = time.Now()
				return report, err
			}
			failures = append(failures, err)
			continue
		}

		m.notify(Event{
			Type:      EventTableFinished,
			Table:     name,
			Index:     i + 1,
			Total:     total,
			Rows:      res.Rows,
			Sequences: res.Sequences,
			Duration:  res.Duration,
		})
	}

	report.Finished = time.Now()
	m.notify(Event{
		Type:     EventRunFinished,
		Total:    total,
		Failed:   len(failures),
		Rows:     report.Rows(),
		Duration: report.Elapsed(),
	})

	return report, errors.Join(failures...)
}

// Plan introspects the source and returns the DDL each table would get,
// without touching the destination.
func (m *Migrator) Plan(ctx context.Context) ([]TablePlan, error) {
	names, err := m.tables(ctx)
	if err != nil {
		return nil, err
	}

	plans := make([]TablePlan, 0, len(names))
	for _, name := range names {
		table, err := m.describe(ctx, name)
		if err != nil {
			return nil, err
		}
		plans = append(plans, TablePlan{Table: table, Statements: m.ddl(table)})
	}
	return plans, nil
}

func (m *Migrator) tables(ctx context.Context) ([]string, error) {
	names, err := schema.ListTables(ctx, m.src, m.dialect)
	if err != nil {
		return nil, &Error{Kind: KindIntrospection, Phase: PhaseList, Err: err}
	}

	if len(m.opts.Tables) > 0 {
		names = schema.Filter(names, m.opts.Tables)
		if len(names) == 0 {
			return nil, &Error{
				Kind:  KindIntrospection,
				Phase: PhaseList,
				Err:   fmt.Errorf("no matching tables found for inputs: %v", m.opts.Tables),
			}
		}
	}
	return names, nil
}

func (m *Migrator) describe(ctx context.Context, name string) (*schema.Table, error) {
	cols, err := schema.Columns(ctx, m.src, m.dialect, name)
	if err != nil {
		return nil, &Error{Kind: KindIntrospection, Table: name, Phase: PhaseColumns, Err: err}
	}
	return &schema.Table{Name: name, Columns: cols}, nil
}

// ddl returns drop, sequence creation and create table statements in the
// order they run.
func (m *Migrator) ddl(table *schema.Table) []Statement {
	stmts := []Statement{{Phase: PhaseDrop, SQL: m.dialect.DropTableQuery(table.Name)}}

	for _, c := range table.Columns {
		if seq, ok := c.Sequence(); ok {
			stmts = append(stmts, Statement{Phase: PhaseSequence, SQL: m.dialect.CreateSequenceQuery(seq)})
		}
	}

	defs := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		defs[i] = m.dialect.ColumnDefinition(c.Name, c.DataType, c.Default, c.Nullable)
	}
	stmts = append(stmts, Statement{Phase: PhaseCreate, SQL: m.dialect.CreateTableQuery(table.Name, defs)})

	return stmts
}

// migrateTable recreates and fills one table inside a single destination
// transaction.
func (m *Migrator) migrateTable(ctx context.Context, name string) (TableResult, error) {
	res := TableResult{Name: name}

	table, err := m.describe(ctx, name)
	if err != nil {
		return res, err
	}

	tx, err := m.dst.BeginTx(ctx, nil)
	if err != nil {
		return res, tableError(name, PhaseBegin, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for _, stmt := range m.ddl(table) {
		if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
			return res, tableError(name, stmt.Phase, err)
		}
		m.log.Debug().Str("table", name).Str("phase", string(stmt.Phase)).Msg(stmt.SQL)
	}

	rows, err := m.copyRows(ctx, tx, table)
	if err != nil {
		return res, err
	}
	res.Rows = rows

	restarts, err := m.resetSequences(ctx, tx, table)
	if err != nil {
		return res, err
	}

	if err := tx.Commit(); err != nil {
		return res, tableError(name, PhaseCommit, err)
	}
	committed = true

	for _, r := range restarts {
		m.restarts[r.sequence] = r.next
		res.Sequences = append(res.Sequences, r.sequence)
	}

	return res, nil
}

type restart struct {
	sequence string
	next     int64
}

// resetSequences restarts each sequence the table draws from at one past
// the largest value loaded into any of its columns.
func (m *Migrator) resetSequences(ctx context.Context, tx *sql.Tx, table *schema.Table) ([]restart, error) {
	var restarts []restart

	for _, ref := range table.SequenceColumns() {
		var highest int64
		for _, col := range ref.Columns {
			var v int64
			if err := tx.QueryRowContext(ctx, m.dialect.MaxValueQuery(table.Name, col)).Scan(&v); err != nil {
				return nil, tableError(table.Name, PhaseReset, fmt.Errorf("max of %s: %w", col, err))
			}
			if v > highest {
				highest = v
			}
		}

		next := highest + 1
		if prev, ok := m.restarts[ref.Name]; ok && prev > next {
			next = prev
		}

		if _, err := tx.ExecContext(ctx, m.dialect.RestartSequenceQuery(ref.Name, next)); err != nil {
			return nil, tableError(table.Name, PhaseReset, err)
		}
		m.log.Debug().Str("table", table.Name).Str("sequence", ref.Name).Int64("next", next).Msg("sequence restarted")

		restarts = append(restarts, restart{sequence: ref.Name, next: next})
	}

	return restarts, nil
}
