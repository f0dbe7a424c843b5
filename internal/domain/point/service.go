package point

import (
	"context"
	"io"
	"time"
)

type PointService interface {
	RegisterEntry(ctx context.Context, employeeID string, req RegisterEntryRequest) (Record, error)
	GetStatus(ctx context.Context, employeeID string) (StatusResponse, error)
	Today(ctx context.Context, employeeID string) (*Record, error)
	GetRecord(ctx context.Context, employeeID string, date time.Time) (Record, error)
	History(ctx context.Context, employeeID string, req HistoryRequest) (HistoryResponse, error)
	ExportHistory(ctx context.Context, employeeID string, req HistoryRequest, w io.Writer) error
}
