package dag

import (
	"github.com/kbukum/flowgraph/errors"
)

// CycleError reports an adjacency structure that is not acyclic.
type CycleError struct {
	*errors.AppError
	// Path is the offending cycle, starting and ending on the same node.
	Path []string
	// Snapshot is the adjacency that failed to sort.
	Snapshot []Entry
}

// Unwrap exposes the embedded AppError to errors.As and errors.Is.
func (e *CycleError) Unwrap() error { return e.AppError }

func newCycleError(path []string, snapshot []Entry) *CycleError {
	return &CycleError{
		AppError: errors.CycleDetected(path),
		Path:     path,
		Snapshot: snapshot,
	}
}
