package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointRepository_SaveVersions(t *testing.T) {
	ctx := context.Background()
	repo := NewPointRepository()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := point.Record{ID: "p1", EmployeeID: "u-1", Date: day}

	require.NoError(t, repo.Save(ctx, rec, 0))
	assert.ErrorIs(t, repo.Save(ctx, rec, 0), point.ErrVersionConflict)

	stored, err := repo.GetByEmployeeDate(ctx, "u-1", day)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)

	stored.Entries = append(stored.Entries, point.Entry{Kind: point.KindClockIn})
	require.NoError(t, repo.Save(ctx, stored, 1))
	assert.ErrorIs(t, repo.Save(ctx, stored, 1), point.ErrVersionConflict)

	_, err = repo.GetByEmployeeDate(ctx, "u-1", day.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, point.ErrRecordNotFound)
}

func TestPointRepository_ListByEmployee(t *testing.T) {
	ctx := context.Background()
	repo := NewPointRepository()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, point.Record{EmployeeID: "u-1", Date: day.AddDate(0, 0, i)}, 0))
	}
	require.NoError(t, repo.Save(ctx, point.Record{EmployeeID: "u-2", Date: day}, 0))

	start := day.AddDate(0, 0, 1)
	records, total, err := repo.ListByEmployee(ctx, point.HistoryFilter{EmployeeID: "u-1", StartDate: &start, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-05", records[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-03-04", records[1].Date.Format("2006-01-02"))
}
