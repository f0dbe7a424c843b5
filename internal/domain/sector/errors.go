package sector

import (
	"errors"
	"fmt"
)

var (
	ErrSectorNotFound = errors.New("sector not found")
	ErrCycleDetected  = errors.New("sector hierarchy cycle detected")
)

// CycleDetectedError is returned when a climb revisits a node or passes the
// configured depth bound.
type CycleDetectedError struct {
	StartID string
	At      string
	Depth   int
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("sector hierarchy cycle detected climbing from %s (at %s, depth %d)", e.StartID, e.At, e.Depth)
}

func (e *CycleDetectedError) Unwrap() error {
	return ErrCycleDetected
}
