package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type actorKey struct{}

// LoadActor resolves the user_id claim against the directory so handlers see
// the current role and sector rather than what was true when the token was
// issued.
func LoadActor(users user.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, "Unauthorized")
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				response.Unauthorized(w, "User ID not found in token")
				return
			}

			actor, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					response.Unauthorized(w, "Unknown user")
					return
				}
				slog.Error("LoadActor lookup failed", "user_id", userID, "error", err)
				response.InternalServerError(w, "Failed to load user")
				return
			}
			if !actor.IsActive {
				response.HandleError(w, user.ErrUserInactive)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func WithActor(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, actorKey{}, u)
}

func ActorFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(actorKey{}).(user.User)
	return u, ok
}
