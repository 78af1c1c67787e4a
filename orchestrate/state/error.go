package state

import (
	"errors"
	"fmt"
)

var (
	ErrMaxIterations = errors.New("max iterations exceeded")
	ErrNoTransition  = errors.New("no valid transition")
	ErrInvalidRoute  = errors.New("router returned undeclared destination")
)

// ExecutionError reports where a run failed and the path that led there.
type ExecutionError struct {
	NodeName string
	Path     []string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %s: %v", e.NodeName, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
