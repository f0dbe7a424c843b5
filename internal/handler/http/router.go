package http

import (
	"log/slog"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	users user.UserRepository,
	pointHandler PointHandler,
	approvalHandler ApprovalHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.LoadActor(users))

			r.Route("/points", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPointRegister)).Post("/", pointHandler.Register)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPointViewOwn))
					r.Get("/today", pointHandler.Today)
					r.Get("/status", pointHandler.Status)
					r.Get("/history", pointHandler.MyHistory)
					r.Get("/history/export", pointHandler.ExportMyHistory)
					r.Get("/date/{date}", pointHandler.GetByDate)
				})

				r.With(middleware.RequirePermission(user.PermissionPointViewAll)).
					Get("/users/{userId}/history", pointHandler.UserHistory)
			})

			r.Route("/approvals", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionApprovalCreate)).Post("/", approvalHandler.Create)
				r.Get("/templates", approvalHandler.Templates)
				r.With(middleware.RequirePermission(user.PermissionApprovalCreate)).Get("/approvers", approvalHandler.Approvers)
				r.With(middleware.RequirePermission(user.PermissionApprovalDashboard)).Get("/dashboard", approvalHandler.Dashboard)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionApprovalView))
					r.Get("/", approvalHandler.List)
					r.Get("/{id}", approvalHandler.Get)
					r.Delete("/{id}", approvalHandler.Cancel)
				})

				// The workflow rules decide who may act; the permission only
				// keeps plain employees away from the endpoint.
				r.With(middleware.RequirePermission(user.PermissionApprovalManage)).Put("/{id}/action", approvalHandler.Act)
			})
		})
	})
	return r
}
