// Package metrics turns engine events into Prometheus metrics that can be
// written to a node_exporter textfile after a run.
package metrics

import (
	"fmt"

	"db-mirror/internal/engine"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "db_mirror"

type Collector struct {
	registry *prometheus.Registry

	tables    *prometheus.CounterVec
	rows      prometheus.Counter
	sequences prometheus.Counter
	duration  prometheus.Histogram
	lastRun   *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_total",
			Help:      "Tables processed, by outcome.",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_copied_total",
			Help:      "Rows copied by committed tables.",
		}),
		sequences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequences_reset_total",
			Help:      "Sequences restarted after a table load.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "table_duration_seconds",
			Help:      "Time spent migrating one table.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished, by outcome.",
		}, []string{"status"}),
	}

	c.registry.MustRegister(c.tables, c.rows, c.sequences, c.duration, c.lastRun)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) OnEvent(event engine.Event) {
	switch event.Type {
	case engine.EventTableFinished:
		c.tables.WithLabelValues("ok").Inc()
		c.rows.Add(float64(event.Rows))
		c.sequences.Add(float64(len(event.Sequences)))
		c.duration.Observe(event.Duration.Seconds())
	case engine.EventTableFailed:
		c.tables.WithLabelValues("failed").Inc()
		c.duration.Observe(event.Duration.Seconds())
	case engine.EventRunFinished:
		status := "ok"
		if event.Failed > 0 {
			status = "partial"
		}
		c.lastRun.WithLabelValues(status).Set(float64(event.Timestamp.Unix()))
	}
}

// WriteTextfile writes the collected metrics atomically to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
