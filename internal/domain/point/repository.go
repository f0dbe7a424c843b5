package point

import (
	"context"
	"time"
)

type PointRepository interface {
	GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (Record, error)
	// Save inserts the record when expectedVersion is 0, otherwise updates it
	// only if the stored version still equals expectedVersion. A lost race
	// returns ErrVersionConflict.
	Save(ctx context.Context, record Record, expectedVersion int) error
	// ListByEmployee returns records newest first. A zero Limit disables paging.
	ListByEmployee(ctx context.Context, filter HistoryFilter) ([]Record, int64, error)
}
