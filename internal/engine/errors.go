package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a migration failure.
type Kind int

const (
	KindConnection    Kind = iota + 1 // an endpoint could not be opened
	KindIntrospection                 // a metadata query against the source failed
	KindTable                         // a statement in a table's drop/create/copy/sequence pass failed
	KindDataCopy                      // inserting rows failed; a KindTable subtype
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindIntrospection:
		return "introspection"
	case KindTable:
		return "table"
	case KindDataCopy:
		return "data copy"
	default:
		return "unknown"
	}
}

// Phase names the step that failed.
type Phase string

const (
	PhaseConnect  Phase = "connect"
	PhaseList     Phase = "list tables"
	PhaseColumns  Phase = "read columns"
	PhaseBegin    Phase = "begin"
	PhaseDrop     Phase = "drop table"
	PhaseSequence Phase = "create sequence"
	PhaseCreate   Phase = "create table"
	PhaseRead     Phase = "read rows"
	PhaseInsert   Phase = "insert rows"
	PhaseReset    Phase = "reset sequence"
	PhaseCommit   Phase = "commit"
)

// Sentinels for errors.Is. ErrTable also matches data copy failures.
var (
	ErrConnection    = errors.New("connection error")
	ErrIntrospection = errors.New("schema introspection error")
	ErrTable         = errors.New("table migration error")
	ErrDataCopy      = errors.New("data copy error")
)

// Error is returned by every failing migration. Err keeps the driver's
// original error so its text reaches the operator unchanged.
type Error struct {
	Kind     Kind
	Endpoint string // "source" or "destination", for connection errors
	Table    string
	Phase    Phase
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindConnection:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	case e.Table != "":
		return fmt.Sprintf("table %q: %s: %v", e.Table, e.Phase, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrIntrospection:
		return e.Kind == KindIntrospection
	case ErrTable:
		return e.Kind == KindTable || e.Kind == KindDataCopy
	case ErrDataCopy:
		return e.Kind == KindDataCopy
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's tree, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func tableError(table string, phase Phase, err error) *Error {
	kind := KindTable
	if phase == PhaseInsert {
		kind = KindDataCopy
	}
	return &Error{Kind: kind, Table: table, Phase: phase, Err: err}
}
