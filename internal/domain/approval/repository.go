package approval

import (
	"context"
	"time"
)

type ListFilter struct {
	RequesterID *string
	ApproverID  *string
	Status      *Status
	Type        *Type
	Priority    *Priority
	// Page and Limit paginate; a zero Limit returns every match.
	Page  int
	Limit int
}

type ApprovalRepository interface {
	Create(ctx context.Context, req Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	// List returns matches newest first with the total count.
	List(ctx context.Context, filter ListFilter) ([]Request, int64, error)
	// CompareAndSwap stores updated only while the stored status equals
	// expected. Otherwise it returns a *StateConflictError carrying the
	// stored status, or ErrRequestNotFound.
	CompareAndSwap(ctx context.Context, expected Status, updated Request) error
	ListOverdue(ctx context.Context, now time.Time) ([]Request, error)
}
