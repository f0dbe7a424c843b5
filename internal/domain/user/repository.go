package user

import (
	"context"
)

// UserRepository is the user directory consulted by the workflow engine.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	// ListByRole returns active users holding role, ordered by name.
	ListByRole(ctx context.Context, role Role) ([]User, error)
}
