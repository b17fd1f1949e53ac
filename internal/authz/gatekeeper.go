package authz

import (
	"net/http"

	"github.com/eresidence/eresidence/internal/platform/httpx"
)

// Gatekeeper wraps individual pages and API routes with a capability check
// stronger than "authenticated". Each mount point re-resolves the role per
// request; there is no cross-page cache, so a role change takes effect on
// the next navigation, not mid-session.
type Gatekeeper struct {
	identity IdentityProvider
	resolver *Resolver
	rules    *RulesetHolder
	// denied renders the terminal access-denied page. It must not redirect;
	// a denied page and a sign-in redirect are distinct states.
	denied http.HandlerFunc
}

// NewGatekeeper constructs a Gatekeeper. denied may be nil, in which case a
// plain-text 403 is written for page routes.
func NewGatekeeper(identity IdentityProvider, resolver *Resolver, rules *RulesetHolder, denied http.HandlerFunc) *Gatekeeper {
	return &Gatekeeper{identity: identity, resolver: resolver, rules: rules, denied: denied}
}

// WithRole resolves the role once per request and stashes it in the context
// for handlers and the advisory view helpers. It never rejects.
func (gk *Gatekeeper) WithRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := gk.roleFor(r)
		next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
	})
}

// RequireAPI gates a JSON route on a capability: 401 when there is no
// subject, 403 when the resolved role lacks the capability.
func (gk *Gatekeeper) RequireAPI(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := gk.identity.CurrentSubject(r.Context())
			if err != nil || subject == nil {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			role := gk.resolveCached(r, subject)
			if !gk.rules.Rules().HasCapability(role, capability) {
				httpx.Error(w, http.StatusForbidden, "forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}

// RequirePage gates a rendered page on a capability. Denial shows the
// terminal access-denied state instead of redirecting, so "log in" and "you
// lack permission" stay distinguishable.
func (gk *Gatekeeper) RequirePage(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := gk.roleFor(r)
			if !gk.rules.Rules().HasCapability(role, capability) {
				if gk.denied != nil {
					gk.denied(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}

// Can reports whether the current request's role grants the capability.
// Intended for advisory show/hide decisions in templates; the gates above
// stay authoritative.
func (gk *Gatekeeper) Can(r *http.Request, capability Capability) bool {
	return gk.rules.Rules().HasCapability(gk.roleFor(r), capability)
}

func (gk *Gatekeeper) roleFor(r *http.Request) RoleID {
	if role, ok := RoleFromContext(r.Context()); ok {
		return role
	}
	subject, err := gk.identity.CurrentSubject(r.Context())
	if err != nil {
		subject = nil
	}
	return gk.resolver.Resolve(r.Context(), subject)
}

func (gk *Gatekeeper) resolveCached(r *http.Request, subject *Subject) RoleID {
	if role, ok := RoleFromContext(r.Context()); ok {
		return role
	}
	return gk.resolver.Resolve(r.Context(), subject)
}

// Rules exposes the current ruleset, for the view layer's advisory helper.
func (gk *Gatekeeper) Rules() *Ruleset {
	return gk.rules.Rules()
}
