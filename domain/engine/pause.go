package engine

import (
	"errors"
	"fmt"
)

// PauseSignal is the single distinguished error type used to transport a
// suspension request across an unbounded depth of user and library frames
// (spec §4.D). No other path in the engine uses this type — apperror.Error
// and ordinary Go errors are always genuine failures, never control flow.
//
// This realizes design note 9's "propagating a tagged result variant... via a
// helper combinator" strategy for free: the Starlark evaluator already
// threads (Value, error) through every call frame, so returning a
// *PauseSignal as the error from a builtin unwinds cleanly to the Sandbox
// Executor without any additional plumbing.
type PauseSignal struct {
	Kind      PauseKind
	Operation string
	Payload   PausePayload
	Sequence  int64
}

func (p *PauseSignal) Error() string {
	return fmt.Sprintf("pause: %s/%s at sequence %d", p.Kind, p.Operation, p.Sequence)
}

// NewPause constructs a PauseSignal.
func NewPause(kind PauseKind, operation string, seq int64, payload PausePayload) *PauseSignal {
	return &PauseSignal{Kind: kind, Operation: operation, Payload: payload, Sequence: seq}
}

// IsPause reports whether err is (or wraps) a PauseSignal, distinguishing it
// from every other error the engine or user program can raise.
func IsPause(err error) (*PauseSignal, bool) {
	var p *PauseSignal
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}
