package auth

import (
	"context"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
)

// Provider adapts the session layer to the authz identity contract. The
// subject identifier and role hint were written into the session at login;
// anything missing or broken reports as "no subject".
type Provider struct{}

// NewProvider constructs a Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// CurrentSubject returns the verified subject for the request context, or
// nil when the session carries none.
func (p *Provider) CurrentSubject(ctx context.Context) (*authz.Subject, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	return &authz.Subject{ID: sess.User(), RoleHint: sess.RoleHint()}, nil
}

var _ authz.IdentityProvider = (*Provider)(nil)
