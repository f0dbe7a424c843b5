package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ApprovalHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Act(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)
	Approvers(w http.ResponseWriter, r *http.Request)
	Templates(w http.ResponseWriter, r *http.Request)
}

type ApprovalHandlerImpl struct {
	approvalService approval.ApprovalService
	clock           clock.Clock
}

func NewApprovalHandler(approvalService approval.ApprovalService, clk clock.Clock) ApprovalHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &ApprovalHandlerImpl{
		approvalService: approvalService,
		clock:           clk,
	}
}

type dashboardView struct {
	Stats          approval.DashboardStats    `json:"stats"`
	RecentActivity []approval.RequestResponse `json:"recent_activity"`
	MyPending      []approval.RequestResponse `json:"my_pending"`
}

// Create implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req approval.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create approval decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.approvalService.Create(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Approval request created successfully", approval.NewRequestResponse(created, h.clock.Now()))
}

// List implements ApprovalHandler.
func (h *ApprovalHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	q := r.URL.Query()
	req := approval.ListRequest{
		Status:   q.Get("status"),
		Type:     q.Get("type"),
		Priority: q.Get("priority"),
	}
	var errs validator.ValidationErrors
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a number"})
		}
		req.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a number"})
		}
		req.Limit = n
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.approvalService.List(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, h.toResponses(result.Requests), response.NewMeta(result.Page, result.Limit, result.TotalItems))
}

// Get implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	req, err := h.approvalService.Get(r.Context(), requestID, actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, approval.NewRequestResponse(req, h.clock.Now()))
}

// Act implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Act(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	var req approval.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Act approval decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	updated, err := h.approvalService.Act(r.Context(), requestID, actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval request "+string(updated.Status), approval.NewRequestResponse(updated, h.clock.Now()))
}

// Cancel implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	cancelled, err := h.approvalService.Cancel(r.Context(), requestID, actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval request cancelled", approval.NewRequestResponse(cancelled, h.clock.Now()))
}

// Dashboard implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	dash, err := h.approvalService.Dashboard(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, dashboardView{
		Stats:          dash.Stats,
		RecentActivity: h.toResponses(dash.RecentActivity),
		MyPending:      h.toResponses(dash.MyPending),
	})
}

// Approvers implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Approvers(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	approvers, err := h.approvalService.PossibleApprovers(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, approval.ApproversResponse{Approvers: user.NewUserResponses(approvers)})
}

// Templates implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Templates(w http.ResponseWriter, r *http.Request) {
	templates := h.approvalService.Templates()
	out := make([]approval.TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, approval.NewTemplateResponse(t))
	}
	response.Success(w, out)
}

func (h *ApprovalHandlerImpl) toResponses(requests []approval.Request) []approval.RequestResponse {
	now := h.clock.Now()
	out := make([]approval.RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, approval.NewRequestResponse(req, now))
	}
	return out
}
