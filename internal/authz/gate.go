package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eresidence/eresidence/internal/platform/httpx"
)

// IdentityProvider reports the verified subject for the current request, or
// nil when there is none. Implementations fail closed: any internal error
// yields (nil, err) and the gates treat it identically to "no subject".
type IdentityProvider interface {
	CurrentSubject(ctx context.Context) (*Subject, error)
}

// Paths that may only be visited while signed out. A signed-in user is
// bounced back to the landing page.
var publicOnlyPaths = []string{"/signin", "/signup", "/reset-password"}

// Static and infrastructure paths the gate never intercepts.
var staticPrefixes = []string{"/static/", "/healthz", "/metrics", "/favicon.ico"}

var staticSuffixes = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".css", ".js"}

type pathClass int

const (
	pathStatic pathClass = iota
	pathPublicOnly
	pathProtected
)

func classifyPath(p string) pathClass {
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return pathStatic
		}
	}
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(p, suffix) {
			return pathStatic
		}
	}
	for _, public := range publicOnlyPaths {
		if strings.HasPrefix(p, public) {
			return pathPublicOnly
		}
	}
	return pathProtected
}

func isAPIPath(p string) bool {
	return strings.HasPrefix(p, "/api/")
}

// RouteGate intercepts inbound requests before they reach page rendering or
// mutating handlers. It decides on identity presence only; capability checks
// are a second, independent gate (Gatekeeper). Any failure to resolve the
// subject is treated as "no subject" and never surfaced as a 500 here.
type RouteGate struct {
	identity IdentityProvider
	logger   *slog.Logger
}

// NewRouteGate constructs a RouteGate.
func NewRouteGate(identity IdentityProvider, logger *slog.Logger) *RouteGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteGate{identity: identity, logger: logger}
}

// Middleware applies the gate decision table, first match wins:
//
//  1. no subject + protected path → redirect to /signin (API paths answer
//     401 JSON instead, since a redirect is useless to a fetch caller)
//  2. subject + public-only path → redirect to the landing page
//  3. otherwise proceed; refreshed session cookies written by the session
//     middleware pass through untouched
func (g *RouteGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := classifyPath(r.URL.Path)
		if class == pathStatic {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := g.identity.CurrentSubject(r.Context())
		if err != nil {
			g.logger.Warn("identity unavailable", slog.String("path", r.URL.Path), slog.Any("error", err))
			subject = nil
		}

		switch {
		case subject == nil && class == pathProtected:
			if isAPIPath(r.URL.Path) {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
		case subject != nil && class == pathPublicOnly:
			http.Redirect(w, r, "/", http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
