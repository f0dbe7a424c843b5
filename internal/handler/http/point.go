package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PointHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	GetByDate(w http.ResponseWriter, r *http.Request)
	MyHistory(w http.ResponseWriter, r *http.Request)
	ExportMyHistory(w http.ResponseWriter, r *http.Request)
	UserHistory(w http.ResponseWriter, r *http.Request)
}

type PointHandlerImpl struct {
	pointService point.PointService
	location     *time.Location
}

func NewPointHandler(pointService point.PointService, location *time.Location) PointHandler {
	if location == nil {
		location = time.UTC
	}
	return &PointHandlerImpl{
		pointService: pointService,
		location:     location,
	}
}

// Register implements PointHandler.
func (h *PointHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req point.RegisterEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Register point decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.SourceIP = clientIP(r)

	record, err := h.pointService.RegisterEntry(r.Context(), actor.ID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, fmt.Sprintf("%s registered", req.Kind), point.NewRecordResponse(record))
}

// Today implements PointHandler.
func (h *PointHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	record, err := h.pointService.Today(r.Context(), actor.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if record == nil {
		response.SuccessWithMessage(w, "No entries registered today", nil)
		return
	}

	response.Success(w, point.NewRecordResponse(*record))
}

// Status implements PointHandler.
func (h *PointHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	status, err := h.pointService.GetStatus(r.Context(), actor.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, status)
}

// GetByDate implements PointHandler.
func (h *PointHandlerImpl) GetByDate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	raw := chi.URLParam(r, "date")
	date, err := time.ParseInLocation("2006-01-02", raw, h.location)
	if err != nil {
		response.HandleError(w, validator.Field("date", "date must be YYYY-MM-DD"))
		return
	}

	record, err := h.pointService.GetRecord(r.Context(), actor.ID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, point.NewRecordResponse(record))
}

// MyHistory implements PointHandler.
func (h *PointHandlerImpl) MyHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	h.history(w, r, actor.ID)
}

// UserHistory implements PointHandler.
func (h *PointHandlerImpl) UserHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		response.BadRequest(w, "User ID is required", nil)
		return
	}
	h.history(w, r, userID)
}

func (h *PointHandlerImpl) history(w http.ResponseWriter, r *http.Request, employeeID string) {
	req, err := parseHistoryQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.pointService.History(r.Context(), employeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, response.NewMeta(result.Page, result.Limit, result.TotalItems))
}

// ExportMyHistory implements PointHandler.
func (h *PointHandlerImpl) ExportMyHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	req, err := parseHistoryQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Built in memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.pointService.ExportHistory(r.Context(), actor.ID, req, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, xlsxContentType, fmt.Sprintf("points-%s.xlsx", actor.ID))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("ExportMyHistory write error", "error", err)
	}
}

func parseHistoryQuery(r *http.Request) (point.HistoryRequest, error) {
	q := r.URL.Query()
	req := point.HistoryRequest{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
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
		return req, errs
	}
	return req, nil
}

// clientIP prefers the address chi's RealIP middleware put in RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
