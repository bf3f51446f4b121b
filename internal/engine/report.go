package engine

import "time"

// TableResult records the outcome of one table.
type TableResult struct {
	Name      string
	Rows      int64
	Sequences []string
	Duration  time.Duration
	Err       error
}

// Report summarizes a run in table order.
type Report struct {
	Tables   []TableResult
	Started  time.Time
	Finished time.Time
}

// Failed returns the results whose migration did not commit.
func (r *Report) Failed() []TableResult {
	var failed []TableResult
	for _, t := range r.Tables {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Rows returns the number of rows copied by committed tables.
func (r *Report) Rows() int64 {
	var n int64
	for _, t := range r.Tables {
		if t.Err == nil {
			n += t.Rows
		}
	}
	return n
}

func (r *Report) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}
