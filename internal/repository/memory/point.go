package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
)

type PointRepository struct {
	mu      sync.Mutex
	records map[string]point.Record
}

var _ point.PointRepository = (*PointRepository)(nil)

func NewPointRepository() *PointRepository {
	return &PointRepository{records: make(map[string]point.Record)}
}

func pointKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (r *PointRepository) GetByEmployeeDate(_ context.Context, employeeID string, date time.Time) (point.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[pointKey(employeeID, date)]
	if !ok {
		return point.Record{}, point.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (r *PointRepository) Save(_ context.Context, record point.Record, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pointKey(record.EmployeeID, record.Date)
	current, exists := r.records[key]
	switch {
	case expectedVersion == 0 && exists:
		return point.ErrVersionConflict
	case expectedVersion != 0 && (!exists || current.Version != expectedVersion):
		return point.ErrVersionConflict
	}
	record.Version = expectedVersion + 1
	r.records[key] = cloneRecord(record)
	return nil
}

func (r *PointRepository) ListByEmployee(_ context.Context, filter point.HistoryFilter) ([]point.Record, int64, error) {
	r.mu.Lock()
	var matches []point.Record
	for _, rec := range r.records {
		if rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.StartDate != nil && rec.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rec.Date.After(*filter.EndDate) {
			continue
		}
		matches = append(matches, cloneRecord(rec))
	}
	r.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Date.After(matches[j].Date) })

	total := int64(len(matches))
	if filter.Limit == 0 {
		return matches, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.Limit
	if start > len(matches) {
		start = len(matches)
	}
	end := start + filter.Limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

func cloneRecord(rec point.Record) point.Record {
	rec.Entries = append([]point.Entry(nil), rec.Entries...)
	return rec
}
