package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput rejects a turn before any state is read.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnswerGeneration marks a failed question-answering call. The turn
	// is not committed, so retrying it is safe.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrSessionStore marks a failed load or save of session state.
	ErrSessionStore = errors.New("session store failure")
)

// Stage names the step of a turn that failed.
type Stage string

const (
	StageInput  Stage = "input"
	StageLock   Stage = "lock"
	StageLoad   Stage = "load"
	StageGraph  Stage = "graph"
	StageAnswer Stage = "answer"
	StageSave   Stage = "save"
)

// TurnError is returned by Run when a turn fails. Nothing from the failed
// turn has been persisted.
type TurnError struct {
	SessionID string
	Stage     Stage
	Err       error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn for session %q failed at %s: %v", e.SessionID, e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}
