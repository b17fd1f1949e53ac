package settings

import (
	"net/http"
	"strings"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/view"
)

// MaintenanceGuard short-circuits requests while maintenance mode is
// on. Administrators pass through so they can switch it back off; the
// sign-in flow and static assets stay reachable for the same reason.
type MaintenanceGuard struct {
	service   *Service
	identity  authz.IdentityProvider
	resolver  *authz.Resolver
	templates *view.Engine
}

// NewMaintenanceGuard constructs the guard.
func NewMaintenanceGuard(service *Service, identity authz.IdentityProvider, resolver *authz.Resolver, templates *view.Engine) *MaintenanceGuard {
	return &MaintenanceGuard{service: service, identity: identity, resolver: resolver, templates: templates}
}

// Middleware applies the guard.
func (g *MaintenanceGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := g.service.Current()
		if !current.MaintenanceMode || exemptPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		subject, err := g.identity.CurrentSubject(r.Context())
		if err != nil {
			subject = nil
		}
		if g.resolver.Resolve(r.Context(), subject) == authz.RoleAdministrator {
			next.ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		data := view.TemplateData{
			Title: "Pemeliharaan Sistem",
			Data:  map[string]any{"Message": current.MaintenanceMessage},
		}
		if g.templates == nil || g.templates.Render(w, "pages/maintenance.html", data) != nil {
			_, _ = w.Write([]byte(current.MaintenanceMessage))
		}
	})
}

func exemptPath(path string) bool {
	if path == "/signin" || path == "/logout" || path == "/healthz" || path == "/metrics" {
		return true
	}
	return strings.HasPrefix(path, "/static/") || path == "/favicon.ico"
}
