package approval

import (
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeOvertime       Type = "overtime"
	TypeVacation       Type = "vacation"
	TypeTimeAdjustment Type = "time_adjustment"
)

type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusChangesRequested Status = "changes_requested"
	StatusCancelled        Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusChangesRequested, StatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// Weight orders priorities, urgent first.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Action string

const (
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionRequestChanges Action = "request_changes"
)

// Target returns the status an action moves a pending request to.
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	case ActionRequestChanges:
		return StatusChangesRequested, true
	}
	return "", false
}

// Payload is the type-specific body of a request.
type Payload map[string]any

func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (p Payload) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Present reports whether key carries a non-empty value.
func (p Payload) Present(key string) bool {
	if _, ok := p.String(key); ok {
		return true
	}
	_, ok := p.Number(key)
	return ok
}

// Request snapshots the requester at creation time. Only the workflow mutates it.
type Request struct {
	ID          string
	Type        Type
	Title       string
	Description string
	Priority    Priority
	Payload     Payload
	Status      Status

	RequesterID         string
	RequesterName       string
	RequesterDepartment string
	RequesterSectorID   *string

	ApproverID   *string
	ApproverName *string

	Comments        *string
	ProcessedBy     *string
	ProcessedByName *string

	Deadline           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ApprovedAt         *time.Time
	RejectedAt         *time.Time
	ChangesRequestedAt *time.Time
	CancelledAt        *time.Time
}

func (r Request) IsPending() bool {
	return r.Status == StatusPending
}

// IsOverdue reports a pending request whose deadline has passed.
func (r Request) IsOverdue(now time.Time) bool {
	return r.IsPending() && now.After(r.Deadline)
}

func (r Request) AssignedTo(userID string) bool {
	return r.ApproverID != nil && *r.ApproverID == userID
}
