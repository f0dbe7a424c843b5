package approval

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/validator"
)

const maxListLimit = 100

type CreateRequest struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Payload     Payload `json:"data"`
}

func (r *CreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Type) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is required",
		})
	}

	if !validator.LengthBetween(r.Title, 5, 100) {
		errs = append(errs, validator.ValidationError{
			Field:   "title",
			Message: "title must be between 5 and 100 characters",
		})
	}

	if validator.Length(r.Description) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "description",
			Message: "description must not exceed 500 characters",
		})
	}

	if r.Priority != "" && !Priority(r.Priority).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "priority",
			Message: "priority must be one of low, medium, high, urgent",
		})
	}

	if r.Payload == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "data",
			Message: "data is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// PriorityOrDefault returns the requested priority, medium when omitted.
func (r *CreateRequest) PriorityOrDefault() Priority {
	if r.Priority == "" {
		return PriorityMedium
	}
	return Priority(r.Priority)
}

type ActionRequest struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

func (r *ActionRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := Action(r.Action).Target(); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be one of approve, reject, request_changes",
		})
	}

	if validator.Length(r.Comments) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "comments",
			Message: "comments must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListRequest struct {
	Status   string
	Type     string
	Priority string
	Page     int
	Limit    int
}

func (r *ListRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != "" && !Status(r.Status).Valid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "invalid status"})
	}
	if r.Priority != "" && !Priority(r.Priority).Valid() {
		errs = append(errs, validator.ValidationError{Field: "priority", Message: "invalid priority"})
	}
	if r.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be positive"})
	}
	if r.Limit < 0 || r.Limit > maxListLimit {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", maxListLimit)})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToFilter builds an unscoped repository filter with paging defaults applied.
func (r *ListRequest) ToFilter() ListFilter {
	f := ListFilter{Page: r.Page, Limit: r.Limit}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 10
	}
	if r.Status != "" {
		s := Status(r.Status)
		f.Status = &s
	}
	if r.Type != "" {
		t := Type(r.Type)
		f.Type = &t
	}
	if r.Priority != "" {
		p := Priority(r.Priority)
		f.Priority = &p
	}
	return f
}

type RequestResponse struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	Priority            string         `json:"priority"`
	Status              string         `json:"status"`
	Data                map[string]any `json:"data"`
	RequesterID         string         `json:"requester_id"`
	RequesterName       string         `json:"requester_name"`
	RequesterDepartment string         `json:"requester_department"`
	RequesterSectorID   *string        `json:"requester_sector_id,omitempty"`
	ApproverID          *string        `json:"approver_id"`
	ApproverName        *string        `json:"approver_name"`
	Comments            *string        `json:"comments,omitempty"`
	ProcessedBy         *string        `json:"processed_by,omitempty"`
	ProcessedByName     *string        `json:"processed_by_name,omitempty"`
	Deadline            string         `json:"deadline"`
	Overdue             bool           `json:"overdue"`
	CreatedAt           string         `json:"created_at"`
	UpdatedAt           string         `json:"updated_at"`
	ApprovedAt          *string        `json:"approved_at,omitempty"`
	RejectedAt          *string        `json:"rejected_at,omitempty"`
	ChangesRequestedAt  *string        `json:"changes_requested_at,omitempty"`
	CancelledAt         *string        `json:"cancelled_at,omitempty"`
}

func NewRequestResponse(r Request, now time.Time) RequestResponse {
	return RequestResponse{
		ID:                  r.ID,
		Type:                string(r.Type),
		Title:               r.Title,
		Description:         r.Description,
		Priority:            string(r.Priority),
		Status:              string(r.Status),
		Data:                r.Payload,
		RequesterID:         r.RequesterID,
		RequesterName:       r.RequesterName,
		RequesterDepartment: r.RequesterDepartment,
		RequesterSectorID:   r.RequesterSectorID,
		ApproverID:          r.ApproverID,
		ApproverName:        r.ApproverName,
		Comments:            r.Comments,
		ProcessedBy:         r.ProcessedBy,
		ProcessedByName:     r.ProcessedByName,
		Deadline:            r.Deadline.Format(time.RFC3339),
		Overdue:             r.IsOverdue(now),
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           r.UpdatedAt.Format(time.RFC3339),
		ApprovedAt:          formatTime(r.ApprovedAt),
		RejectedAt:          formatTime(r.RejectedAt),
		ChangesRequestedAt:  formatTime(r.ChangesRequestedAt),
		CancelledAt:         formatTime(r.CancelledAt),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

type ListResponse struct {
	Requests   []Request
	Page       int
	Limit      int
	TotalItems int64
}

type DashboardStats struct {
	Total      int            `json:"total"`
	Pending    int            `json:"pending"`
	Approved   int            `json:"approved"`
	Rejected   int            `json:"rejected"`
	Overdue    int            `json:"overdue"`
	ByType     map[string]int `json:"by_type"`
	ByPriority map[string]int `json:"by_priority"`
}

type DashboardResponse struct {
	Stats          DashboardStats `json:"stats"`
	RecentActivity []Request      `json:"-"`
	MyPending      []Request      `json:"-"`
}

type StepResponse struct {
	Order        int    `json:"order"`
	Role         string `json:"role"`
	Required     bool   `json:"required"`
	TimeoutHours int    `json:"timeout_hours"`
}

type TemplateResponse struct {
	Type           string         `json:"type"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Steps          []StepResponse `json:"steps"`
	RequiredFields []string       `json:"required_fields"`
	Rules          map[string]any `json:"rules,omitempty"`
}

func NewTemplateResponse(t Template) TemplateResponse {
	steps := make([]StepResponse, 0, len(t.Steps))
	for _, s := range t.Steps {
		steps = append(steps, StepResponse{
			Order:        s.Order,
			Role:         string(s.Role),
			Required:     s.Required,
			TimeoutHours: s.TimeoutHours,
		})
	}
	rules := map[string]any{}
	if t.Rules.MaxHours != nil {
		rules["max_hours"] = *t.Rules.MaxHours
	}
	if t.Rules.MinDaysAdvance != nil {
		rules["min_days_advance"] = *t.Rules.MinDaysAdvance
	}
	if t.Rules.MaxDaysBack != nil {
		rules["max_days_back"] = *t.Rules.MaxDaysBack
	}
	return TemplateResponse{
		Type:           string(t.Type),
		Name:           t.Name,
		Description:    t.Description,
		Steps:          steps,
		RequiredFields: t.RequiredFields,
		Rules:          rules,
	}
}

type ApproversResponse struct {
	Approvers []user.UserResponse `json:"approvers"`
}
