package approval

import (
	"context"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
)

type ApprovalService interface {
	Create(ctx context.Context, requester user.User, req CreateRequest) (Request, error)
	Act(ctx context.Context, requestID string, actor user.User, req ActionRequest) (Request, error)
	Cancel(ctx context.Context, requestID string, actor user.User) (Request, error)
	Get(ctx context.Context, requestID string, actor user.User) (Request, error)
	List(ctx context.Context, actor user.User, req ListRequest) (ListResponse, error)
	Dashboard(ctx context.Context, actor user.User) (DashboardResponse, error)
	PossibleApprovers(ctx context.Context, requester user.User) ([]user.User, error)
	Templates() []Template
}
