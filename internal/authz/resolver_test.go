package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProfileStore struct {
	results map[string]ProfileLookupResult
	calls   int
}

func (s *stubProfileStore) LookupRole(ctx context.Context, subjectID string) ProfileLookupResult {
	s.calls++
	if result, ok := s.results[subjectID]; ok {
		return result
	}
	return ProfileMissing()
}

func TestResolveProfileWinsOverHint(t *testing.T) {
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u1": FoundProfile(RoleAdministrator),
	}}
	resolver := NewResolver(store, nil)

	role := resolver.Resolve(context.Background(), &Subject{ID: "u1", RoleHint: "member"})
	assert.Equal(t, RoleAdministrator, role, "profile role must win over any claim hint")
}

func TestResolveProfileNonAdminWinsOverAdminHint(t *testing.T) {
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u1": FoundProfile(RoleWarga),
	}}
	resolver := NewResolver(store, nil)

	role := resolver.Resolve(context.Background(), &Subject{ID: "u1", RoleHint: AdminRoleHint})
	assert.Equal(t, RoleWarga, role)
}

func TestResolveMissingProfileUsesHint(t *testing.T) {
	resolver := NewResolver(&stubProfileStore{}, nil)

	admin := resolver.Resolve(context.Background(), &Subject{ID: "u2", RoleHint: AdminRoleHint})
	assert.Equal(t, RoleAdministrator, admin)

	member := resolver.Resolve(context.Background(), &Subject{ID: "u2", RoleHint: "member"})
	assert.Equal(t, RoleWarga, member)

	blank := resolver.Resolve(context.Background(), &Subject{ID: "u2"})
	assert.Equal(t, RoleWarga, blank)
}

func TestResolveStoreErrorTriggersFallback(t *testing.T) {
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u2": ProfileError(errors.New("connection refused")),
	}}
	resolver := NewResolver(store, nil)

	role := resolver.Resolve(context.Background(), &Subject{ID: "u2", RoleHint: AdminRoleHint})
	assert.Equal(t, RoleAdministrator, role, "fallback must trigger on store error, not absence only")

	store.results["u2"] = ProfileError(errors.New("connection refused"))
	role = resolver.Resolve(context.Background(), &Subject{ID: "u2", RoleHint: ""})
	assert.Equal(t, RoleWarga, role)
}

func TestResolveNilSubjectAlwaysDefault(t *testing.T) {
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"": FoundProfile(RoleAdministrator),
	}}
	resolver := NewResolver(store, nil)

	assert.Equal(t, RoleWarga, resolver.Resolve(context.Background(), nil))
	assert.Equal(t, RoleWarga, resolver.Resolve(context.Background(), &Subject{ID: "", RoleHint: AdminRoleHint}))
}

func TestResolveEmptyFoundRoleDegradesToHintPath(t *testing.T) {
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u3": FoundProfile(""),
	}}
	resolver := NewResolver(store, nil)

	assert.Equal(t, RoleWarga, resolver.Resolve(context.Background(), &Subject{ID: "u3"}))
}

func TestResolveNilStoreFallsBack(t *testing.T) {
	resolver := NewResolver(nil, nil)
	assert.Equal(t, RoleAdministrator, resolver.Resolve(context.Background(), &Subject{ID: "u1", RoleHint: AdminRoleHint}))
	assert.Equal(t, RoleWarga, resolver.Resolve(context.Background(), &Subject{ID: "u1"}))
}
