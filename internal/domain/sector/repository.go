package sector

import "context"

// SectorRepository is a read-only view of the organizational tree.
type SectorRepository interface {
	GetByID(ctx context.Context, id string) (Sector, error)
}
