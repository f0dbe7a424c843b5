package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
)

type SectorRepository struct {
	mu      sync.RWMutex
	sectors map[string]sector.Sector
}

var _ sector.SectorRepository = (*SectorRepository)(nil)

func NewSectorRepository(sectors ...sector.Sector) *SectorRepository {
	r := &SectorRepository{sectors: make(map[string]sector.Sector)}
	for _, s := range sectors {
		r.Put(s)
	}
	return r
}

func (r *SectorRepository) Put(s sector.Sector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sectors[s.ID] = s
}

func (r *SectorRepository) GetByID(_ context.Context, id string) (sector.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sectors[id]
	if !ok {
		return sector.Sector{}, sector.ErrSectorNotFound
	}
	return s, nil
}
