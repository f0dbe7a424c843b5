package approval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
)

// Basis names the rule that produced a Decision.
type Basis string

const (
	BasisPrivilegedRole     Basis = "privileged_role"
	BasisAssignedApprover   Basis = "assigned_approver"
	BasisSectorHierarchy    Basis = "sector_hierarchy"
	BasisDepartment         Basis = "department"
	BasisDepartmentFallback Basis = "department_fallback"
	BasisRequester          Basis = "requester"
	BasisDenied             Basis = "denied"
)

// Decision is the outcome of an authorization check. Degraded marks answers
// computed from the department heuristic because the hierarchy could not be read.
type Decision struct {
	Allowed  bool
	Basis    Basis
	Degraded bool
	Cause    error
}

type Guard struct {
	resolver *Resolver
	logger   *slog.Logger
}

func NewGuard(resolver *Resolver, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{resolver: resolver, logger: logger}
}

// CanAct decides whether actor may approve, reject or request changes on req.
// A hierarchy cycle is returned as an error and never allows the action.
func (g *Guard) CanAct(ctx context.Context, actor user.User, req approval.Request) (Decision, error) {
	if actor.IsPrivileged() {
		return Decision{Allowed: true, Basis: BasisPrivilegedRole}, nil
	}
	if req.AssignedTo(actor.ID) {
		return Decision{Allowed: true, Basis: BasisAssignedApprover}, nil
	}

	ok, err := g.resolver.IsValidApprover(ctx, actor, req.RequesterSectorID, req.RequesterDepartment)
	if err != nil {
		var lookupErr *LookupError
		if !errors.As(err, &lookupErr) {
			return Decision{Basis: BasisDenied, Cause: err}, err
		}
		allowed := actor.IsSupervisor() && actor.Department == req.RequesterDepartment
		g.logger.WarnContext(ctx, "sector hierarchy unavailable, using department fallback",
			slog.String("request_id", req.ID),
			slog.String("actor_id", actor.ID),
			slog.Bool("allowed", allowed),
			slog.Any("error", err),
		)
		return Decision{Allowed: allowed, Basis: BasisDepartmentFallback, Degraded: true, Cause: err}, nil
	}

	if !ok {
		return Decision{Basis: BasisDenied}, nil
	}
	if req.RequesterSectorID == nil || *req.RequesterSectorID == "" || !actor.HasSector() {
		return Decision{Allowed: true, Basis: BasisDepartment}, nil
	}
	return Decision{Allowed: true, Basis: BasisSectorHierarchy}, nil
}

// CanCancel allows the requester and admins only.
func (g *Guard) CanCancel(actor user.User, req approval.Request) Decision {
	if actor.ID == req.RequesterID {
		return Decision{Allowed: true, Basis: BasisRequester}
	}
	if actor.IsAdmin() {
		return Decision{Allowed: true, Basis: BasisPrivilegedRole}
	}
	return Decision{Basis: BasisDenied}
}

// CanView allows admins, the requester, the assigned approver and HR on
// vacation requests. Anyone else needs CanAct.
func (g *Guard) CanView(ctx context.Context, actor user.User, req approval.Request) (bool, error) {
	switch {
	case actor.IsAdmin(), actor.ID == req.RequesterID, req.AssignedTo(actor.ID):
		return true, nil
	case actor.IsHR() && req.Type == approval.TypeVacation:
		return true, nil
	}
	d, err := g.CanAct(ctx, actor, req)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}
