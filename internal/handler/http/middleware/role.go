package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/response"
)

// RequirePermission checks the directory role of the loaded actor against the
// permission table. It must run after LoadActor.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(actor.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, actor.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
