package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/database"
)

// auditChunkSize keeps each INSERT well under the 65535 parameter limit.
const auditChunkSize = 500

type auditRepositoryImpl struct {
	db database.Conn
}

func NewAuditRepository(db database.Conn) audit.Repository {
	return &auditRepositoryImpl{db: db}
}

// CreateBatch writes events in one transaction, several rows per statement.
func (r *auditRepositoryImpl) CreateBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		for start := 0; start < len(events); start += auditChunkSize {
			end := min(start+auditChunkSize, len(events))
			if err := r.insert(ctx, events[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *auditRepositoryImpl) insert(ctx context.Context, events []audit.Event) error {
	q := GetQuerier(ctx, r.db)

	valueStrings := make([]string, 0, len(events))
	valueArgs := make([]any, 0, len(events)*7)

	for i, e := range events {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}

		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		valueArgs = append(valueArgs,
			e.ID,
			string(e.Type),
			e.ActorID,
			e.Resource,
			e.ResourceID,
			details,
			e.OccurredAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO audit_logs (id, event_type, actor_id, resource, resource_id, details, occurred_at)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("insert audit events: %w", err)
	}
	return nil
}
