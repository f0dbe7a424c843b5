package approval

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-workflow/internal/repository/memory"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// Organization used across the tests:
//
//	1 (supervisor: director)
//	├── 3 (supervisor: u-2)
//	│   └── 5 (no supervisor)  <- u-9
//	└── 7 (supervisor: u-other)
//	20 (root, no supervisor)   <- u-lonely
var (
	adminUser    = user.User{ID: "u-admin", Name: "Admin", Role: user.RoleAdmin, Department: "Board", IsActive: true}
	hrUser       = user.User{ID: "u-hr", Name: "Helena", Role: user.RoleHR, Department: "HR", IsActive: true}
	directorUser = user.User{ID: "u-director", Name: "Director", Role: user.RoleSupervisor, SectorID: strPtr("1"), Department: "Board", IsActive: true}
	u2           = user.User{ID: "u-2", Name: "Maria", Role: user.RoleSupervisor, SectorID: strPtr("3"), Department: "IT", IsActive: true}
	otherSup     = user.User{ID: "u-other", Name: "Otto", Role: user.RoleSupervisor, SectorID: strPtr("7"), Department: "Sales", IsActive: true}
	financeSup   = user.User{ID: "u-fin", Name: "Fiona", Role: user.RoleSupervisor, Department: "Finance", IsActive: true}
	employee9    = user.User{ID: "u-9", Name: "Ana", Role: user.RoleEmployee, SectorID: strPtr("5"), Department: "IT", IsActive: true}
	employee10   = user.User{ID: "u-10", Name: "Bruno", Role: user.RoleEmployee, Department: "Finance", IsActive: true}
	lonely       = user.User{ID: "u-lonely", Name: "Lia", Role: user.RoleEmployee, SectorID: strPtr("20"), Department: "Lab", IsActive: true}
)

func newDirectory() (*memory.UserRepository, *memory.SectorRepository) {
	users := memory.NewUserRepository(adminUser, hrUser, directorUser, u2, otherSup, financeSup, employee9, employee10, lonely)
	sectors := memory.NewSectorRepository(
		sector.Sector{ID: "1", Name: "Directorate", SupervisorID: strPtr("u-director")},
		sector.Sector{ID: "3", Name: "IT", ParentID: strPtr("1"), SupervisorID: strPtr("u-2")},
		sector.Sector{ID: "5", Name: "Infrastructure", ParentID: strPtr("3")},
		sector.Sector{ID: "7", Name: "Sales", ParentID: strPtr("1"), SupervisorID: strPtr("u-other")},
		sector.Sector{ID: "20", Name: "Lab"},
	)
	return users, sectors
}

type failingSectors struct{}

func (failingSectors) GetByID(context.Context, string) (sector.Sector, error) {
	return sector.Sector{}, errors.New("connection refused")
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Publish(_ context.Context, e audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) Types() []audit.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type workflowEnv struct {
	svc   *ApprovalServiceImpl
	repo  *memory.ApprovalRepository
	sink  *recordingSink
	clock *clock.Fixed
}

func newWorkflowEnv() workflowEnv {
	users, sectors := newDirectory()
	registry, err := LoadRegistry("")
	if err != nil {
		panic(err)
	}
	resolver := NewResolver(users, sectors, 0)
	repo := memory.NewApprovalRepository()
	sink := &recordingSink{}
	clk := clock.NewFixed(testNow)
	svc := NewApprovalService(repo, registry, resolver, NewGuard(resolver, nil), sink, clk, nil)
	return workflowEnv{svc: svc, repo: repo, sink: sink, clock: clk}
}
