package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
)

const defaultMaxDepth = 32

// LookupError wraps a failure of the user directory or the sector store,
// as opposed to a definitive answer from them.
type LookupError struct {
	Op  string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("hierarchy lookup %s: %v", e.Op, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Resolver finds approvers by climbing the sector tree.
type Resolver struct {
	users    user.UserRepository
	sectors  sector.SectorRepository
	maxDepth int
}

func NewResolver(users user.UserRepository, sectors sector.SectorRepository, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &Resolver{users: users, sectors: sectors, maxDepth: maxDepth}
}

// DetermineApprover returns the user that handles step for requester, or nil
// when no approval is needed. Admin and HR requesters approve themselves.
func (r *Resolver) DetermineApprover(ctx context.Context, requester user.User, step approval.Step) (*user.User, error) {
	if requester.IsPrivileged() {
		return nil, nil
	}

	if step.Role == user.RoleHR || step.Role == user.RoleAdmin {
		return r.firstOfRole(ctx, step.Role)
	}

	if !requester.HasSector() {
		return r.departmentSupervisor(ctx, requester)
	}

	var found *user.User
	err := r.climb(ctx, *requester.SectorID, func(node sector.Sector) (bool, error) {
		if !node.HasSupervisor() || *node.SupervisorID == requester.ID {
			return false, nil
		}
		u, err := r.activeUser(ctx, *node.SupervisorID)
		if err != nil || u == nil {
			return false, err
		}
		found = u
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	return r.firstOfRole(ctx, user.RoleHR)
}

// PossibleApprovers lists admins, HR, then supervisors from the requester's
// sector up to the root. Ids never repeat.
func (r *Resolver) PossibleApprovers(ctx context.Context, requester user.User) ([]user.User, error) {
	var candidates []user.User

	for _, role := range []user.Role{user.RoleAdmin, user.RoleHR} {
		users, err := r.users.ListByRole(ctx, role)
		if err != nil {
			return nil, &LookupError{Op: "list " + string(role), Err: err}
		}
		candidates = append(candidates, users...)
	}

	if requester.HasSector() {
		err := r.climb(ctx, *requester.SectorID, func(node sector.Sector) (bool, error) {
			if !node.HasSupervisor() {
				return false, nil
			}
			u, err := r.activeUser(ctx, *node.SupervisorID)
			if err != nil {
				return false, err
			}
			if u != nil {
				candidates = append(candidates, *u)
			}
			return false, nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		supervisors, err := r.departmentSupervisors(ctx, requester.Department)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, supervisors...)
	}

	return dedupUsers(candidates), nil
}

// IsValidApprover reports whether approver may decide on requests from the
// given sector: admin and HR always, supervisors when their sector is the
// requester's sector or one of its ancestors. Without sector data on either
// side the departments are compared instead.
func (r *Resolver) IsValidApprover(ctx context.Context, approver user.User, requesterSectorID *string, requesterDepartment string) (bool, error) {
	if approver.IsPrivileged() {
		return true, nil
	}
	if !approver.IsSupervisor() {
		return false, nil
	}
	if requesterSectorID == nil || *requesterSectorID == "" || !approver.HasSector() {
		return approver.Department == requesterDepartment, nil
	}

	target := *approver.SectorID
	if target == *requesterSectorID {
		return true, nil
	}

	found := false
	err := r.climb(ctx, *requesterSectorID, func(node sector.Sector) (bool, error) {
		if node.ID == target {
			found = true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// climb visits startID and its ancestors, nearest first, until visit stops it
// or the root is reached. A missing node ends the chain. Revisiting a node or
// exceeding maxDepth fails with *sector.CycleDetectedError.
func (r *Resolver) climb(ctx context.Context, startID string, visit func(sector.Sector) (bool, error)) error {
	visited := make(map[string]struct{})
	id := startID
	for depth := 0; ; depth++ {
		if _, seen := visited[id]; seen || depth >= r.maxDepth {
			return &sector.CycleDetectedError{StartID: startID, At: id, Depth: depth}
		}
		visited[id] = struct{}{}

		node, err := r.sectors.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sector.ErrSectorNotFound) {
				return nil
			}
			return &LookupError{Op: "get sector " + id, Err: err}
		}

		stop, err := visit(node)
		if err != nil || stop {
			return err
		}
		if !node.HasParent() {
			return nil
		}
		id = *node.ParentID
	}
}

func (r *Resolver) activeUser(ctx context.Context, id string) (*user.User, error) {
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil
		}
		return nil, &LookupError{Op: "get user " + id, Err: err}
	}
	if !u.IsActive {
		return nil, nil
	}
	return &u, nil
}

func (r *Resolver) firstOfRole(ctx context.Context, role user.Role) (*user.User, error) {
	users, err := r.users.ListByRole(ctx, role)
	if err != nil {
		return nil, &LookupError{Op: "list " + string(role), Err: err}
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *Resolver) departmentSupervisor(ctx context.Context, requester user.User) (*user.User, error) {
	supervisors, err := r.departmentSupervisors(ctx, requester.Department)
	if err != nil {
		return nil, err
	}
	for i := range supervisors {
		if supervisors[i].ID != requester.ID {
			return &supervisors[i], nil
		}
	}
	return nil, nil
}

func (r *Resolver) departmentSupervisors(ctx context.Context, department string) ([]user.User, error) {
	supervisors, err := r.users.ListByRole(ctx, user.RoleSupervisor)
	if err != nil {
		return nil, &LookupError{Op: "list supervisors", Err: err}
	}
	var out []user.User
	for _, s := range supervisors {
		if s.Department == department {
			out = append(out, s)
		}
	}
	return out, nil
}

func dedupUsers(users []user.User) []user.User {
	seen := make(map[string]struct{}, len(users))
	out := make([]user.User, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}
