package roles_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/roles"
	"github.com/eresidence/eresidence/internal/shared"
	_ "github.com/eresidence/eresidence/testing"
)

type mockRoleRepo struct {
	roles   map[authz.RoleID]roles.Role
	deletes int
}

func newMockRoleRepo(seed ...roles.Role) *mockRoleRepo {
	repo := &mockRoleRepo{roles: make(map[authz.RoleID]roles.Role)}
	for _, role := range seed {
		repo.roles[role.ID] = role
	}
	return repo
}

func (m *mockRoleRepo) ListRoles(ctx context.Context) ([]roles.Role, error) {
	out := make([]roles.Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	return out, nil
}

func (m *mockRoleRepo) FindRole(ctx context.Context, id authz.RoleID) (*roles.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &role, nil
}

func (m *mockRoleRepo) CreateRole(ctx context.Context, role roles.Role) (*roles.Role, error) {
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	m.roles[role.ID] = role
	return &role, nil
}

func (m *mockRoleRepo) UpdateRole(ctx context.Context, role roles.Role) (*roles.Role, error) {
	existing, ok := m.roles[role.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	role.IsSystem = existing.IsSystem
	role.UpdatedAt = time.Now()
	m.roles[role.ID] = role
	return &role, nil
}

func (m *mockRoleRepo) DeleteRole(ctx context.Context, id authz.RoleID) error {
	if _, ok := m.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.roles, id)
	m.deletes++
	return nil
}

type mockProfileCounter struct {
	counts map[authz.RoleID]int64
}

func (m *mockProfileCounter) CountByRole(ctx context.Context, roleID authz.RoleID) (int64, error) {
	return m.counts[roleID], nil
}

func systemRoles() []roles.Role {
	return []roles.Role{
		{ID: authz.RoleAdministrator, Name: "Administrator", Capabilities: []authz.Capability{authz.CapabilityAll}, IsSystem: true, IsActive: true},
		{ID: authz.RoleWarga, Name: "Warga", Capabilities: []authz.Capability{authz.CapDashboardView, authz.CapResidentsView}, IsSystem: true, IsActive: true},
	}
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newMockRoleRepo(append(systemRoles(), roles.Role{
		ID: "pengurus", Name: "Pengurus RT", Capabilities: []authz.Capability{authz.CapTransactionsView}, IsActive: true,
	})...)
	counter := &mockProfileCounter{counts: map[authz.RoleID]int64{"pengurus": 3}}
	svc := roles.NewService(nil, repo, counter, authz.NewRulesetHolder(nil))

	err := svc.Delete(context.Background(), "pengurus")
	assert.ErrorIs(t, err, roles.ErrRoleInUse)

	// The role must survive a rejected deletion untouched.
	role, findErr := repo.FindRole(context.Background(), "pengurus")
	require.NoError(t, findErr)
	assert.Equal(t, "Pengurus RT", role.Name)
	assert.Zero(t, repo.deletes)
}

func TestDeleteSystemRoleRejectedEvenWhenUnused(t *testing.T) {
	repo := newMockRoleRepo(systemRoles()...)
	counter := &mockProfileCounter{counts: map[authz.RoleID]int64{}}
	svc := roles.NewService(nil, repo, counter, authz.NewRulesetHolder(nil))

	for _, id := range []authz.RoleID{authz.RoleAdministrator, authz.RoleWarga} {
		err := svc.Delete(context.Background(), id)
		assert.ErrorIs(t, err, roles.ErrRoleSystemReserved, "role %s", id)
	}
	assert.Zero(t, repo.deletes)
}

func TestDeleteInUseTakesPrecedenceOverSystemReserved(t *testing.T) {
	repo := newMockRoleRepo(systemRoles()...)
	counter := &mockProfileCounter{counts: map[authz.RoleID]int64{authz.RoleWarga: 12}}
	svc := roles.NewService(nil, repo, counter, authz.NewRulesetHolder(nil))

	err := svc.Delete(context.Background(), authz.RoleWarga)
	assert.ErrorIs(t, err, roles.ErrRoleInUse)
}

func TestDeleteUnusedCustomRoleRefreshesRuleset(t *testing.T) {
	repo := newMockRoleRepo(append(systemRoles(), roles.Role{
		ID: "pengurus", Name: "Pengurus RT", Capabilities: []authz.Capability{authz.CapTransactionsView}, IsActive: true,
	})...)
	counter := &mockProfileCounter{counts: map[authz.RoleID]int64{}}
	holder := authz.NewRulesetHolder(authz.NewRuleset(map[authz.RoleID][]authz.Capability{
		"pengurus": {authz.CapTransactionsView},
	}))
	svc := roles.NewService(nil, repo, counter, holder)

	require.True(t, holder.Rules().HasCapability("pengurus", authz.CapTransactionsView))
	require.NoError(t, svc.Delete(context.Background(), "pengurus"))

	_, err := repo.FindRole(context.Background(), "pengurus")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.False(t, holder.Rules().HasCapability("pengurus", authz.CapTransactionsView))
}

func TestCreateRolePublishesGrants(t *testing.T) {
	repo := newMockRoleRepo(systemRoles()...)
	counter := &mockProfileCounter{counts: map[authz.RoleID]int64{}}
	holder := authz.NewRulesetHolder(nil)
	svc := roles.NewService(nil, repo, counter, holder)

	created, err := svc.Create(context.Background(), roles.Role{
		ID: "keamanan", Name: "Petugas Keamanan",
		Capabilities: []authz.Capability{authz.CapResidentsView}, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleID("keamanan"), created.ID)
	assert.True(t, holder.Rules().HasCapability("keamanan", authz.CapResidentsView))
	assert.False(t, holder.Rules().HasCapability("keamanan", authz.CapResidentsEdit))
}

func TestCreateRoleRequiresName(t *testing.T) {
	repo := newMockRoleRepo(systemRoles()...)
	svc := roles.NewService(nil, repo, &mockProfileCounter{}, authz.NewRulesetHolder(nil))

	_, err := svc.Create(context.Background(), roles.Role{ID: "x", Name: "   "})
	assert.ErrorIs(t, err, roles.ErrNameRequired)
}

func TestUpdateInactiveRoleDropsGrants(t *testing.T) {
	repo := newMockRoleRepo(append(systemRoles(), roles.Role{
		ID: "pengurus", Name: "Pengurus RT", Capabilities: []authz.Capability{authz.CapTransactionsView}, IsActive: true,
	})...)
	holder := authz.NewRulesetHolder(authz.NewRuleset(map[authz.RoleID][]authz.Capability{
		"pengurus": {authz.CapTransactionsView},
	}))
	svc := roles.NewService(nil, repo, &mockProfileCounter{}, holder)

	_, err := svc.Update(context.Background(), roles.Role{
		ID: "pengurus", Name: "Pengurus RT",
		Capabilities: []authz.Capability{authz.CapTransactionsView}, IsActive: false,
	})
	require.NoError(t, err)
	assert.False(t, holder.Rules().HasCapability("pengurus", authz.CapTransactionsView))
}
