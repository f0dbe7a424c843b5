package point

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfSequence    = errors.New("point entry out of sequence")
	ErrDayComplete      = errors.New("point record for the day is already complete")
	ErrRecordNotFound   = errors.New("point record not found")
	ErrVersionConflict  = errors.New("point record was modified concurrently")
	ErrInvalidEntryKind = errors.New("invalid point entry kind")
)

// SequenceError carries the kind the ledger expected. Expected is empty when
// the day is closed.
type SequenceError struct {
	Expected EntryKind
	Got      EntryKind
}

func (e *SequenceError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("point record for the day is complete, %s not accepted", e.Got)
	}
	return fmt.Sprintf("expected %s entry, got %s", e.Expected, e.Got)
}

func (e *SequenceError) Unwrap() []error {
	if e.Expected == "" {
		return []error{ErrOutOfSequence, ErrDayComplete}
	}
	return []error{ErrOutOfSequence}
}
