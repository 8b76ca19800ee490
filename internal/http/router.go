// Package http wires the service layer onto a net/http ServeMux.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/pkg/httpx"
	"github.com/itas-team/itas/pkg/jwtx"
	"github.com/itas-team/itas/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.TokenVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService     *service.AuthService
	TokenService    *service.TokenService
	TwoFAService    *service.TwoFAService
	RoleService     *service.RoleActionService
	TaskService     *service.TaskService
	DailyLogService *service.DailyLogService
	SupportService  *service.SupportService
}

func NewRouter(
	verifier *jwtx.Signer,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	allowedOrigins []string,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		c.Handler,
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTwoFA()
	r.registerAdmin()
	r.registerDev()
	r.registerSupport()
	r.registerSystem()
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService}

	// Credential endpoints take the strict limit keyed by IP.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/2fa/login",
		httpx.Chain(http.HandlerFunc(h.Handle2FALogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/reset",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		http.HandlerFunc(h.HandleLogout),
	)

	// profile:read is in both the full and the setup-limited scope set,
	// so pending-enrolment sessions can still see who they are.
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("profile:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTwoFA() {
	h := &TwoFAHandler{TwoFA: r.TwoFAService, Tokens: r.TokenService}

	// 2fa:manage is deliberately the one write scope a setup-limited
	// session holds.
	r.Mux.Handle("POST /api/auth/2fa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("2fa:manage"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/2fa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("2fa:manage"),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	action := &RoleActionHandler{Roles: r.RoleService}
	admin := &AdminHandler{Roles: r.RoleService}

	// Reached from email links, no bearer token. The signed token in the
	// query string is the credential.
	r.Mux.Handle("GET /api/admin/role-action",
		httpx.Chain(http.HandlerFunc(action.HandleAction),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/admin/role-requests",
		httpx.Chain(http.HandlerFunc(admin.HandleListRequests),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("roles:manage"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /api/admin/users/{id}/role",
		httpx.Chain(http.HandlerFunc(admin.HandleSetRole),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("roles:manage", "reports:read"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/admin/users/{id}/role/deny",
		httpx.Chain(http.HandlerFunc(admin.HandleDeny),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("roles:manage", "reports:read"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDev() {
	h := &DevHandler{Tasks: r.TaskService, Logs: r.DailyLogService}

	read := func(hf http.HandlerFunc) http.Handler {
		return httpx.Chain(hf,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("tasks:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}
	write := func(hf http.HandlerFunc, scope string) http.Handler {
		return httpx.Chain(hf,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(scope),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /api/dev/summary", read(h.HandleSummary))
	r.Mux.Handle("GET /api/dev/tasks", read(h.HandleListTasks))
	r.Mux.Handle("GET /api/dev/tasks/{id}", read(h.HandleGetTask))
	r.Mux.Handle("POST /api/dev/tasks", write(h.HandleCreateTask, "tasks:write"))
	r.Mux.Handle("PUT /api/dev/tasks/{id}", write(h.HandleUpdateTask, "tasks:write"))
	r.Mux.Handle("PUT /api/dev/tasks/{id}/status", write(h.HandleUpdateTaskStatus, "tasks:write"))
	r.Mux.Handle("DELETE /api/dev/tasks/{id}", write(h.HandleDeleteTask, "tasks:write"))

	r.Mux.Handle("GET /api/dev/tasks/{id}/logs", read(h.HandleListTaskLogs))
	r.Mux.Handle("POST /api/dev/tasks/{id}/logs", write(h.HandleAddTaskLog, "tasks:write"))
	r.Mux.Handle("DELETE /api/dev/tasks/{id}/logs/{logId}", write(h.HandleDeleteTaskLog, "tasks:write"))

	r.Mux.Handle("GET /api/dev/daily-logs",
		httpx.Chain(http.HandlerFunc(h.HandleListDailyLogs),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("logs:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/dev/daily-logs", write(h.HandleCreateDailyLog, "logs:write"))
	r.Mux.Handle("PUT /api/dev/daily-logs/{id}", write(h.HandleUpdateDailyLog, "logs:write"))
	r.Mux.Handle("DELETE /api/dev/daily-logs/{id}", write(h.HandleDeleteDailyLog, "logs:write"))
}

func (r *Router) registerSupport() {
	h := &SupportHandler{Support: r.SupportService}

	r.Mux.Handle("POST /api/support/contact",
		httpx.Chain(http.HandlerFunc(h.HandleContact),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	h := &HealthHandler{Store: r.store, Version: r.buildVersion, StartTime: r.startTime}

	r.Mux.Handle("GET /api/health", http.HandlerFunc(h.HandleHealth))
}
