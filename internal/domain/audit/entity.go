package audit

import "time"

type EventType string

const (
	EventPointRegistered   EventType = "POINT_REGISTERED"
	EventApprovalCreated   EventType = "APPROVAL_CREATED"
	EventApprovalProcessed EventType = "APPROVAL_PROCESSED"
	EventApprovalCancelled EventType = "APPROVAL_CANCELLED"
	EventApprovalOverdue   EventType = "APPROVAL_OVERDUE"
)

// Event is a domain fact emitted by a state transition.
type Event struct {
	ID         string
	Type       EventType
	ActorID    string
	Resource   string
	ResourceID string
	Details    map[string]any
	OccurredAt time.Time
}
