package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eresidence/eresidence/internal/auth"
	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/dashboard"
	"github.com/eresidence/eresidence/internal/iuran"
	"github.com/eresidence/eresidence/internal/iuran/categories"
	"github.com/eresidence/eresidence/internal/observability"
	"github.com/eresidence/eresidence/internal/residents"
	"github.com/eresidence/eresidence/internal/roles"
	"github.com/eresidence/eresidence/internal/settings"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/users"
	"github.com/eresidence/eresidence/internal/view"
	"github.com/eresidence/eresidence/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	Gate        *authz.RouteGate
	Gatekeeper  *authz.Gatekeeper
	Maintenance *settings.MaintenanceGuard

	AuthHandler       *auth.Handler
	DashboardHandler  *dashboard.Handler
	ResidentsHandler  *residents.Handler
	IuranHandler      *iuran.Handler
	CategoriesHandler *categories.Handler
	UsersHandler      *users.Handler
	RolesHandler      *roles.Handler
	SettingsHandler   *settings.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Page routes sit behind the route
// gate plus a per-mount capability gate; API routes re-check the
// capability independently, so the server stays authoritative no matter
// what the client shows.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Gate.Middleware)
	if params.Maintenance != nil {
		r.Use(params.Maintenance.Middleware)
	}
	r.Use(params.Gatekeeper.WithRole)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(r)

	gk := params.Gatekeeper

	r.Group(func(r chi.Router) {
		r.Use(gk.RequirePage(authz.CapDashboardView))
		params.DashboardHandler.MountPageRoutes(r)
	})
	r.Route("/residents", func(r chi.Router) {
		r.Use(gk.RequirePage(authz.CapResidentsView))
		params.ResidentsHandler.MountPageRoutes(r)
	})
	r.Route("/iuran", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Use(gk.RequirePage(authz.CapTransactionsView))
			params.IuranHandler.MountPageRoutes(r)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Use(gk.RequirePage(authz.CapCategoriesManage))
			params.CategoriesHandler.MountPageRoutes(r)
		})
	})
	r.Route("/settings", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Use(gk.RequirePage(authz.CapUsersManage))
			params.UsersHandler.MountPageRoutes(r)
		})
		r.Route("/roles", func(r chi.Router) {
			r.Use(gk.RequirePage(authz.CapRolesManage))
			params.RolesHandler.MountPageRoutes(r)
		})
		r.Route("/system", func(r chi.Router) {
			r.Use(gk.RequirePage(authz.CapSettingsManage))
			params.SettingsHandler.MountPageRoutes(r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(gk.RequireAPI(authz.CapDashboardView))
			params.DashboardHandler.MountAPIRoutes(r)
		})
		r.Route("/residents", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapResidentsView))
				params.ResidentsHandler.MountAPIRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapResidentsEdit))
				params.ResidentsHandler.MountMutationRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapResidentsDelete))
				params.ResidentsHandler.MountDeleteRoutes(r)
			})
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapTransactionsView))
				params.IuranHandler.MountAPIRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapTransactionsEdit))
				params.IuranHandler.MountMutationRoutes(r)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapTransactionsView))
				params.CategoriesHandler.MountAPIRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapCategoriesManage))
				params.CategoriesHandler.MountMutationRoutes(r)
			})
		})
		r.Route("/admin/users", func(r chi.Router) {
			r.Use(gk.RequireAPI(authz.CapUsersManage))
			params.UsersHandler.MountAPIRoutes(r)
		})
		r.Route("/admin/roles", func(r chi.Router) {
			r.Use(gk.RequireAPI(authz.CapRolesManage))
			params.RolesHandler.MountAPIRoutes(r)
		})
		r.Route("/settings", func(r chi.Router) {
			params.SettingsHandler.MountAPIRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(gk.RequireAPI(authz.CapSettingsManage))
				params.SettingsHandler.MountMutationRoutes(r)
			})
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// AccessDeniedHandler renders the terminal access-denied page. It never
// redirects, so "sign in first" and "you lack permission" stay
// distinguishable states.
func AccessDeniedHandler(logger *slog.Logger, templates *view.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		data := view.TemplateData{Title: "Akses Ditolak", CurrentPath: r.URL.Path}
		if err := templates.Render(w, "pages/denied.html", data); err != nil {
			logger.Error("render denied page", slog.Any("error", err))
			_, _ = w.Write([]byte("Akses Ditolak"))
		}
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
