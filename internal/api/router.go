package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sydlexius/sprout/internal/api/middleware"
	"github.com/sydlexius/sprout/internal/auth"
	"github.com/sydlexius/sprout/internal/backup"
	"github.com/sydlexius/sprout/internal/configprop"
	"github.com/sydlexius/sprout/internal/exploration"
	"github.com/sydlexius/sprout/internal/maintenance"
	"github.com/sydlexius/sprout/internal/pages"
	"github.com/sydlexius/sprout/internal/user"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	AuthService        *auth.Service
	UserService        *user.Service
	ConfigStore        *configprop.Store
	ExplorationService *exploration.Service
	MaintenanceService *maintenance.Service
	BackupService      *backup.Service
	Pages              *pages.Handlers
	StaticAssets       *StaticAssets
	Logger             *slog.Logger
	BasePath           string
	SecureCookies      bool
}

// Router sets up all HTTP routes for the application.
type Router struct {
	authService        *auth.Service
	userService        *user.Service
	configStore        *configprop.Store
	explorationService *exploration.Service
	maintenanceService *maintenance.Service
	backupService      *backup.Service
	pages              *pages.Handlers
	staticAssets       *StaticAssets
	logger             *slog.Logger
	basePath           string
	secureCookies      bool
}

// NewRouter creates a new Router.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		authService:        deps.AuthService,
		userService:        deps.UserService,
		configStore:        deps.ConfigStore,
		explorationService: deps.ExplorationService,
		maintenanceService: deps.MaintenanceService,
		backupService:      deps.BackupService,
		pages:              deps.Pages,
		staticAssets:       deps.StaticAssets,
		logger:             deps.Logger.With(slog.String("component", "api")),
		basePath:           deps.BasePath,
		secureCookies:      deps.SecureCookies,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
// ctx bounds background work owned by the handler, such as the login rate
// limiter's sweeper.
func (r *Router) Handler(ctx context.Context) http.Handler {
	optionalAuth := middleware.OptionalAuth(r.authService)
	authMw := middleware.Auth(r.authService)
	requireAdmin := middleware.RequireAdmin(r.userService)
	csrf := middleware.NewCSRF(r.secureCookies).Middleware
	loginLimiter := middleware.NewLoginRateLimiter(ctx).Middleware

	mux := http.NewServeMux()
	bp := r.basePath

	// Public routes
	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.HandleFunc("POST "+bp+"/api/v1/auth/login", chain(r.handleLogin, loginLimiter))
	mux.HandleFunc("POST "+bp+"/api/v1/auth/setup", chain(r.handleSetup, loginLimiter))
	mux.Handle("GET "+bp+"/static/", r.staticAssets.Handler())

	// Pages (identity is optional)
	mux.HandleFunc("GET "+bp+"/{$}", chain(r.page(r.pages.Splash), optionalAuth, csrf))
	mux.HandleFunc("GET "+bp+"/about", chain(r.page(r.pages.About), optionalAuth, csrf))
	mux.HandleFunc("GET "+bp+"/site_guidelines", chain(r.page(r.pages.SiteGuidelines), optionalAuth, csrf))
	mux.HandleFunc("GET "+bp+"/contact", chain(r.page(r.pages.Contact), optionalAuth, csrf))
	mux.HandleFunc("GET "+bp+"/dashboard", chain(r.page(r.dashboardPage), optionalAuth, csrf))
	mux.HandleFunc("GET "+bp+"/login", chain(r.page(r.loginPage), optionalAuth, csrf))

	// Authenticated API
	mux.HandleFunc("POST "+bp+"/api/v1/auth/logout", chain(r.handleLogout, authMw, csrf))
	mux.HandleFunc("GET "+bp+"/api/v1/auth/me", chain(r.handleMe, authMw, csrf))
	mux.HandleFunc("POST "+bp+"/api/v1/users/me/editor", chain(r.handleRegisterEditor, authMw, csrf))
	mux.HandleFunc("GET "+bp+"/api/v1/explorations", chain(r.handleListExplorations, authMw, csrf))
	mux.HandleFunc("GET "+bp+"/api/v1/explorations/{id}", chain(r.handleGetExploration, optionalAuth, csrf))
	mux.HandleFunc("POST "+bp+"/api/v1/explorations", chain(r.handleCreateExploration, authMw, csrf))
	mux.HandleFunc("PUT "+bp+"/api/v1/explorations/{id}", chain(r.handleUpdateExploration, authMw, csrf))

	// Admin API
	mux.HandleFunc("GET "+bp+"/api/v1/config", chain(requireAdmin(r.handleGetConfig), authMw, csrf))
	mux.HandleFunc("PUT "+bp+"/api/v1/config", chain(requireAdmin(r.handleUpdateConfig), authMw, csrf))
	mux.HandleFunc("DELETE "+bp+"/api/v1/config/{name}", chain(requireAdmin(r.handleResetConfig), authMw, csrf))
	mux.HandleFunc("DELETE "+bp+"/api/v1/explorations/{id}", chain(requireAdmin(r.handleDeleteExploration), authMw, csrf))
	mux.HandleFunc("GET "+bp+"/api/v1/users", chain(requireAdmin(r.handleListUsers), authMw, csrf))
	mux.HandleFunc("DELETE "+bp+"/api/v1/users/{id}", chain(requireAdmin(r.handleDeleteUser), authMw, csrf))
	mux.HandleFunc("POST "+bp+"/api/v1/admin/demos/{id}/reload", chain(requireAdmin(r.handleReloadDemo), authMw, csrf))
	mux.HandleFunc("GET "+bp+"/api/v1/admin/maintenance", chain(requireAdmin(r.handleMaintenanceStatus), authMw, csrf))
	mux.HandleFunc("POST "+bp+"/api/v1/admin/maintenance/run", chain(requireAdmin(r.handleMaintenanceRun), authMw, csrf))
	mux.HandleFunc("POST "+bp+"/api/v1/admin/maintenance/vacuum", chain(requireAdmin(r.handleMaintenanceVacuum), authMw, csrf))
	mux.HandleFunc("GET "+bp+"/api/v1/admin/backups", chain(requireAdmin(r.handleListBackups), authMw, csrf))
	mux.HandleFunc("POST "+bp+"/api/v1/admin/backups", chain(requireAdmin(r.handleCreateBackup), authMw, csrf))
	mux.HandleFunc("DELETE "+bp+"/api/v1/admin/backups/{filename}", chain(requireAdmin(r.handleDeleteBackup), authMw, csrf))

	return middleware.Logging(r.logger)(middleware.SecurityHeaders(mux))
}

// chain wraps fn in middleware; the first listed runs first.
func chain(fn http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.HandlerFunc {
	var h http.Handler = fn
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h.ServeHTTP
}
