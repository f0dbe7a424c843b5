package approval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/clock"
	"github.com/google/uuid"
)

const (
	recentActivityWindow = 7 * 24 * time.Hour
	recentActivityLimit  = 10
	myPendingLimit       = 5
)

type ApprovalServiceImpl struct {
	repo     approval.ApprovalRepository
	registry *Registry
	resolver *Resolver
	guard    *Guard
	sink     audit.Sink
	clock    clock.Clock
	logger   *slog.Logger
}

var _ approval.ApprovalService = (*ApprovalServiceImpl)(nil)

func NewApprovalService(
	repo approval.ApprovalRepository,
	registry *Registry,
	resolver *Resolver,
	guard *Guard,
	sink audit.Sink,
	clk clock.Clock,
	logger *slog.Logger,
) *ApprovalServiceImpl {
	if sink == nil {
		sink = audit.Discard{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalServiceImpl{
		repo:     repo,
		registry: registry,
		resolver: resolver,
		guard:    guard,
		sink:     sink,
		clock:    clk,
		logger:   logger,
	}
}

// Create validates the payload, resolves the approver and stores a pending
// request. Nothing is stored when validation fails.
func (s *ApprovalServiceImpl) Create(ctx context.Context, requester user.User, req approval.CreateRequest) (approval.Request, error) {
	if err := req.Validate(); err != nil {
		return approval.Request{}, err
	}

	now := s.clock.Now()
	reqType := approval.Type(req.Type)

	if err := s.registry.Validate(reqType, req.Payload, now); err != nil {
		return approval.Request{}, err
	}
	tmpl, err := s.registry.Lookup(reqType)
	if err != nil {
		return approval.Request{}, err
	}
	step, _ := tmpl.FirstStep()

	approver, err := s.resolver.DetermineApprover(ctx, requester, step)
	if err != nil {
		return approval.Request{}, fmt.Errorf("determine approver: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return approval.Request{}, fmt.Errorf("generate request id: %w", err)
	}

	request := approval.Request{
		ID:                  id.String(),
		Type:                reqType,
		Title:               req.Title,
		Description:         req.Description,
		Priority:            req.PriorityOrDefault(),
		Payload:             req.Payload,
		Status:              approval.StatusPending,
		RequesterID:         requester.ID,
		RequesterName:       requester.Name,
		RequesterDepartment: requester.Department,
		RequesterSectorID:   requester.SectorID,
		Deadline:            now.Add(time.Duration(step.TimeoutHours) * time.Hour),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if approver != nil {
		request.ApproverID = &approver.ID
		request.ApproverName = &approver.Name
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return approval.Request{}, fmt.Errorf("store approval request: %w", err)
	}

	details := map[string]any{"type": string(request.Type), "priority": string(request.Priority)}
	if approver != nil {
		details["approver_id"] = approver.ID
	}
	s.publish(ctx, audit.EventApprovalCreated, requester.ID, request.ID, details)

	return request, nil
}

// Act applies approve, reject or request_changes to a pending request.
func (s *ApprovalServiceImpl) Act(ctx context.Context, requestID string, actor user.User, req approval.ActionRequest) (approval.Request, error) {
	if err := req.Validate(); err != nil {
		return approval.Request{}, err
	}

	current, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return approval.Request{}, err
	}
	if !current.IsPending() {
		return approval.Request{}, &approval.StateConflictError{RequestID: current.ID, Status: current.Status}
	}

	decision, err := s.guard.CanAct(ctx, actor, current)
	if err != nil {
		return approval.Request{}, fmt.Errorf("authorize action: %w", err)
	}
	if !decision.Allowed {
		return approval.Request{}, &approval.AuthorizationError{Action: req.Action, ActorID: actor.ID}
	}

	action := approval.Action(req.Action)
	target, _ := action.Target()
	now := s.clock.Now()

	updated := current
	updated.Status = target
	updated.UpdatedAt = now
	updated.ProcessedBy = &actor.ID
	updated.ProcessedByName = &actor.Name
	if req.Comments != "" {
		comments := req.Comments
		updated.Comments = &comments
	}
	switch target {
	case approval.StatusApproved:
		updated.ApprovedAt = &now
	case approval.StatusRejected:
		updated.RejectedAt = &now
	case approval.StatusChangesRequested:
		updated.ChangesRequestedAt = &now
	}

	if err := s.repo.CompareAndSwap(ctx, approval.StatusPending, updated); err != nil {
		return approval.Request{}, err
	}

	s.publish(ctx, audit.EventApprovalProcessed, actor.ID, updated.ID, map[string]any{
		"action":   string(action),
		"status":   string(target),
		"basis":    string(decision.Basis),
		"degraded": decision.Degraded,
	})

	return updated, nil
}

// Cancel moves a pending request to cancelled on behalf of its requester or an admin.
func (s *ApprovalServiceImpl) Cancel(ctx context.Context, requestID string, actor user.User) (approval.Request, error) {
	current, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return approval.Request{}, err
	}
	if !current.IsPending() {
		return approval.Request{}, &approval.StateConflictError{RequestID: current.ID, Status: current.Status}
	}
	if d := s.guard.CanCancel(actor, current); !d.Allowed {
		return approval.Request{}, &approval.AuthorizationError{Action: "cancel", ActorID: actor.ID}
	}

	now := s.clock.Now()
	updated := current
	updated.Status = approval.StatusCancelled
	updated.UpdatedAt = now
	updated.CancelledAt = &now

	if err := s.repo.CompareAndSwap(ctx, approval.StatusPending, updated); err != nil {
		return approval.Request{}, err
	}

	s.publish(ctx, audit.EventApprovalCancelled, actor.ID, updated.ID, map[string]any{
		"type": string(updated.Type),
	})

	return updated, nil
}

func (s *ApprovalServiceImpl) Get(ctx context.Context, requestID string, actor user.User) (approval.Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return approval.Request{}, err
	}
	ok, err := s.guard.CanView(ctx, actor, req)
	if err != nil {
		return approval.Request{}, fmt.Errorf("authorize view: %w", err)
	}
	if !ok {
		return approval.Request{}, &approval.AuthorizationError{Action: "view", ActorID: actor.ID}
	}
	return req, nil
}

// List scopes the listing to what actor may see: admin and HR everything,
// supervisors their own and the requests they may act on, others their own.
func (s *ApprovalServiceImpl) List(ctx context.Context, actor user.User, req approval.ListRequest) (approval.ListResponse, error) {
	if err := req.Validate(); err != nil {
		return approval.ListResponse{}, err
	}
	filter := req.ToFilter()

	switch {
	case actor.IsPrivileged():
	case actor.IsSupervisor():
		return s.listForSupervisor(ctx, actor, filter)
	default:
		filter.RequesterID = &actor.ID
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return approval.ListResponse{}, fmt.Errorf("list approval requests: %w", err)
	}
	return approval.ListResponse{Requests: requests, Page: filter.Page, Limit: filter.Limit, TotalItems: total}, nil
}

func (s *ApprovalServiceImpl) listForSupervisor(ctx context.Context, actor user.User, filter approval.ListFilter) (approval.ListResponse, error) {
	page, limit := filter.Page, filter.Limit
	filter.Page, filter.Limit = 0, 0

	all, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return approval.ListResponse{}, fmt.Errorf("list approval requests: %w", err)
	}

	visible := make([]approval.Request, 0, len(all))
	for _, r := range all {
		if r.RequesterID == actor.ID || r.AssignedTo(actor.ID) {
			visible = append(visible, r)
			continue
		}
		d, err := s.guard.CanAct(ctx, actor, r)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping request in listing", slog.String("request_id", r.ID), slog.Any("error", err))
			continue
		}
		if d.Allowed {
			visible = append(visible, r)
		}
	}

	start := (page - 1) * limit
	if start > len(visible) {
		start = len(visible)
	}
	end := start + limit
	if end > len(visible) {
		end = len(visible)
	}
	return approval.ListResponse{
		Requests:   visible[start:end],
		Page:       page,
		Limit:      limit,
		TotalItems: int64(len(visible)),
	}, nil
}

// Dashboard summarizes the requests relevant to actor.
func (s *ApprovalServiceImpl) Dashboard(ctx context.Context, actor user.User) (approval.DashboardResponse, error) {
	all, _, err := s.repo.List(ctx, approval.ListFilter{})
	if err != nil {
		return approval.DashboardResponse{}, fmt.Errorf("list approval requests: %w", err)
	}

	now := s.clock.Now()
	relevant := make([]approval.Request, 0, len(all))
	for _, r := range all {
		if dashboardRelevant(actor, r) {
			relevant = append(relevant, r)
		}
	}

	stats := approval.DashboardStats{
		ByType:     map[string]int{},
		ByPriority: map[string]int{},
	}
	var recent, mine []approval.Request
	for _, r := range relevant {
		stats.Total++
		switch r.Status {
		case approval.StatusPending:
			stats.Pending++
		case approval.StatusApproved:
			stats.Approved++
		case approval.StatusRejected:
			stats.Rejected++
		}
		if r.IsOverdue(now) {
			stats.Overdue++
		}
		stats.ByType[string(r.Type)]++
		stats.ByPriority[string(r.Priority)]++

		if !r.UpdatedAt.Before(now.Add(-recentActivityWindow)) {
			recent = append(recent, r)
		}
		if r.IsPending() && r.AssignedTo(actor.ID) {
			mine = append(mine, r)
		}
	}

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].UpdatedAt.After(recent[j].UpdatedAt) })
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}

	sort.SliceStable(mine, func(i, j int) bool {
		wi, wj := mine[i].Priority.Weight(), mine[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return mine[i].Deadline.Before(mine[j].Deadline)
	})
	if len(mine) > myPendingLimit {
		mine = mine[:myPendingLimit]
	}

	return approval.DashboardResponse{Stats: stats, RecentActivity: recent, MyPending: mine}, nil
}

func dashboardRelevant(actor user.User, r approval.Request) bool {
	switch actor.Role {
	case user.RoleAdmin:
		return true
	case user.RoleHR:
		return r.Type == approval.TypeVacation || r.AssignedTo(actor.ID)
	case user.RoleSupervisor:
		return r.AssignedTo(actor.ID) || r.RequesterDepartment == actor.Department
	default:
		return r.RequesterID == actor.ID
	}
}

func (s *ApprovalServiceImpl) PossibleApprovers(ctx context.Context, requester user.User) ([]user.User, error) {
	return s.resolver.PossibleApprovers(ctx, requester)
}

func (s *ApprovalServiceImpl) Templates() []approval.Template {
	return s.registry.List()
}

// ScanOverdue emits one overdue event per pending request past its deadline.
// Request state is left untouched.
func (s *ApprovalServiceImpl) ScanOverdue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	overdue, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue requests: %w", err)
	}
	for _, r := range overdue {
		details := map[string]any{
			"deadline":      r.Deadline.Format(time.RFC3339),
			"overdue_hours": int(now.Sub(r.Deadline).Hours()),
		}
		if r.ApproverID != nil {
			details["approver_id"] = *r.ApproverID
		}
		s.publish(ctx, audit.EventApprovalOverdue, "system", r.ID, details)
	}
	return len(overdue), nil
}

func (s *ApprovalServiceImpl) publish(ctx context.Context, t audit.EventType, actorID, resourceID string, details map[string]any) {
	s.sink.Publish(ctx, audit.Event{
		ID:         uuid.NewString(),
		Type:       t,
		ActorID:    actorID,
		Resource:   "approval_request",
		ResourceID: resourceID,
		Details:    details,
		OccurredAt: s.clock.Now(),
	})
}
