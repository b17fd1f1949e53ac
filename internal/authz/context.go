package authz

import "context"

type roleContextKey struct{}

// ContextWithRole stashes the resolved role for downstream handlers and the
// advisory view helpers.
func ContextWithRole(ctx context.Context, role RoleID) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the resolved role and whether one was stashed.
func RoleFromContext(ctx context.Context) (RoleID, bool) {
	role, ok := ctx.Value(roleContextKey{}).(RoleID)
	return role, ok
}
