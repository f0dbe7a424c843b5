package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
)

type AuditRepository struct {
	mu     sync.Mutex
	events []audit.Event
}

var _ audit.Repository = (*AuditRepository)(nil)

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) CreateBatch(_ context.Context, events []audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything stored so far.
func (r *AuditRepository) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}
