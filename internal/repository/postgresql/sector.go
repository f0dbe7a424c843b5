package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type sectorRepositoryImpl struct {
	db database.Querier
}

func NewSectorRepository(db database.Querier) sector.SectorRepository {
	return &sectorRepositoryImpl{db: db}
}

// GetByID implements sector.SectorRepository.
func (r *sectorRepositoryImpl) GetByID(ctx context.Context, id string) (sector.Sector, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, COALESCE(parent_id, ''), COALESCE(supervisor_id, '')
		FROM sectors
		WHERE id = $1
	`

	var s sector.Sector
	var parentID, supervisorID string
	err := q.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &parentID, &supervisorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return sector.Sector{}, sector.ErrSectorNotFound
	}
	if err != nil {
		return sector.Sector{}, fmt.Errorf("get sector %s: %w", id, err)
	}
	if parentID != "" {
		s.ParentID = &parentID
	}
	if supervisorID != "" {
		s.SupervisorID = &supervisorID
	}
	return s, nil
}
