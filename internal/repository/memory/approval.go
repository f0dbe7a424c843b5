package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
)

type ApprovalRepository struct {
	mu       sync.Mutex
	requests map[string]approval.Request
}

var _ approval.ApprovalRepository = (*ApprovalRepository)(nil)

func NewApprovalRepository() *ApprovalRepository {
	return &ApprovalRepository{requests: make(map[string]approval.Request)}
}

func (r *ApprovalRepository) Create(_ context.Context, req approval.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; exists {
		return fmt.Errorf("approval request %s already exists", req.ID)
	}
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *ApprovalRepository) GetByID(_ context.Context, id string) (approval.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return approval.Request{}, approval.ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *ApprovalRepository) List(_ context.Context, filter approval.ListFilter) ([]approval.Request, int64, error) {
	r.mu.Lock()
	var matches []approval.Request
	for _, req := range r.requests {
		if matchesFilter(req, filter) {
			matches = append(matches, cloneRequest(req))
		}
	}
	r.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

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

func (r *ApprovalRepository) CompareAndSwap(_ context.Context, expected approval.Status, updated approval.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.requests[updated.ID]
	if !ok {
		return approval.ErrRequestNotFound
	}
	if current.Status != expected {
		return &approval.StateConflictError{RequestID: current.ID, Status: current.Status}
	}
	r.requests[updated.ID] = cloneRequest(updated)
	return nil
}

func (r *ApprovalRepository) ListOverdue(_ context.Context, now time.Time) ([]approval.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []approval.Request
	for _, req := range r.requests {
		if req.IsOverdue(now) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func matchesFilter(req approval.Request, f approval.ListFilter) bool {
	if f.RequesterID != nil && req.RequesterID != *f.RequesterID {
		return false
	}
	if f.ApproverID != nil && !req.AssignedTo(*f.ApproverID) {
		return false
	}
	if f.Status != nil && req.Status != *f.Status {
		return false
	}
	if f.Type != nil && req.Type != *f.Type {
		return false
	}
	if f.Priority != nil && req.Priority != *f.Priority {
		return false
	}
	return true
}

func cloneRequest(req approval.Request) approval.Request {
	if req.Payload != nil {
		payload := make(approval.Payload, len(req.Payload))
		for k, v := range req.Payload {
			payload[k] = v
		}
		req.Payload = payload
	}
	return req
}
