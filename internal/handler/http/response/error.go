package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var seqErr *point.SequenceError
	if errors.As(err, &seqErr) {
		details := map[string]string{"got_kind": string(seqErr.Got)}
		if seqErr.Expected != "" {
			details["expected_kind"] = string(seqErr.Expected)
		}
		ConflictWithDetails(w, seqErr.Error(), details)
		return
	}

	var conflictErr *approval.StateConflictError
	if errors.As(err, &conflictErr) {
		ConflictWithDetails(w, "Approval request is not pending", map[string]string{
			"status": string(conflictErr.Status),
		})
		return
	}

	switch {
	// Point domain errors
	case errors.Is(err, point.ErrRecordNotFound):
		NotFound(w, "Point record not found")
	case errors.Is(err, point.ErrVersionConflict):
		Conflict(w, "Point record was modified concurrently, retry")

	// Approval domain errors
	case errors.Is(err, approval.ErrTemplateNotFound):
		NotFound(w, "Approval template not found")
	case errors.Is(err, approval.ErrRequestNotFound):
		NotFound(w, "Approval request not found")
	case errors.Is(err, approval.ErrNotAuthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, approval.ErrNotPending):
		Conflict(w, "Approval request is not pending")

	// Directory errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User is inactive")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, sector.ErrSectorNotFound):
		NotFound(w, "Sector not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
