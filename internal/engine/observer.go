package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// EventType represents the lifecycle phases of a migration run.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventTableStarted  EventType = "table_started"
	EventTableFinished EventType = "table_finished"
	EventTableFailed   EventType = "table_failed"
	EventRunFinished   EventType = "run_finished"
)

// Event is emitted at each phase. Fields that do not apply to a type are
// left zero.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Table     string
	Index     int // 1-based position of Table in the run
	Total     int // number of tables in the run
	Rows      int64
	Sequences []string
	Duration  time.Duration
	Failed    int
	Err       error
}

// Observer receives progress events. Observers are called synchronously
// from the migration's goroutine.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(event Event) { f(event) }

// LoggingObserver writes one human-readable log line per event.
type LoggingObserver struct {
	log zerolog.Logger
}

func NewLoggingObserver(log zerolog.Logger) *LoggingObserver {
	return &LoggingObserver{log: log}
}

func (lo *LoggingObserver) OnEvent(event Event) {
	switch event.Type {
	case EventRunStarted:
		lo.log.Info().Int("tables", event.Total).Msg("migration started")
	case EventTableStarted:
		lo.log.Info().
			Str("table", event.Table).
			Int("index", event.Index).
			Int("total", event.Total).
			Msg("migrating table")
	case EventTableFinished:
		lo.log.Info().
			Str("table", event.Table).
			Int64("rows", event.Rows).
			Strs("sequences", event.Sequences).
			Dur("elapsed", event.Duration).
			Msg("table migrated")
	case EventTableFailed:
		lo.log.Error().
			Err(event.Err).
			Str("table", event.Table).
			Dur("elapsed", event.Duration).
			Msg("table migration failed")
	case EventRunFinished:
		lo.log.Info().
			Int("tables", event.Total).
			Int("failed", event.Failed).
			Int64("rows", event.Rows).
			Dur("elapsed", event.Duration).
			Msg("migration finished")
	}
}
