package settings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/settings"
	_ "github.com/eresidence/eresidence/testing"
)

type memSettingsRepo struct {
	saved *settings.Settings
}

func (m *memSettingsRepo) Get(ctx context.Context) (*settings.Settings, error) {
	if m.saved == nil {
		defaults := settings.Defaults()
		return &defaults, nil
	}
	copied := *m.saved
	return &copied, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, s settings.Settings) error {
	m.saved = &s
	return nil
}

type stubIdentity struct {
	subject *authz.Subject
}

func (s *stubIdentity) CurrentSubject(ctx context.Context) (*authz.Subject, error) {
	return s.subject, nil
}

type stubProfiles struct {
	roles map[string]authz.RoleID
}

func (s *stubProfiles) LookupRole(ctx context.Context, subjectID string) authz.ProfileLookupResult {
	if role, ok := s.roles[subjectID]; ok {
		return authz.FoundProfile(role)
	}
	return authz.ProfileMissing()
}

func TestGetWithoutRowReturnsDefaults(t *testing.T) {
	svc, err := settings.NewService(context.Background(), nil, &memSettingsRepo{})
	require.NoError(t, err)

	current, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "E-Residence", current.DashboardName)
	assert.False(t, current.MaintenanceMode)
}

func TestUpdateRefreshesCachedCopy(t *testing.T) {
	svc, err := settings.NewService(context.Background(), nil, &memSettingsRepo{})
	require.NoError(t, err)

	next := settings.Defaults()
	next.MaintenanceMode = true
	_, err = svc.Update(context.Background(), next)
	require.NoError(t, err)

	assert.True(t, svc.Current().MaintenanceMode)

	_, err = svc.Reset(context.Background())
	require.NoError(t, err)
	assert.False(t, svc.Current().MaintenanceMode)
}

func newGuard(t *testing.T, maintenance bool, identity authz.IdentityProvider, profiles authz.ProfileStore) *settings.MaintenanceGuard {
	t.Helper()
	repo := &memSettingsRepo{}
	if maintenance {
		s := settings.Defaults()
		s.MaintenanceMode = true
		repo.saved = &s
	}
	svc, err := settings.NewService(context.Background(), nil, repo)
	require.NoError(t, err)
	return settings.NewMaintenanceGuard(svc, identity, authz.NewResolver(profiles, nil), nil)
}

func serveThrough(guard *settings.MaintenanceGuard, path string) *httptest.ResponseRecorder {
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
	return res
}

func TestMaintenanceBlocksNonAdmin(t *testing.T) {
	guard := newGuard(t, true,
		&stubIdentity{subject: &authz.Subject{ID: "warga-1"}},
		&stubProfiles{roles: map[string]authz.RoleID{"warga-1": authz.RoleWarga}})

	res := serveThrough(guard, "/residents")
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestMaintenanceLetsAdminThrough(t *testing.T) {
	guard := newGuard(t, true,
		&stubIdentity{subject: &authz.Subject{ID: "admin-1"}},
		&stubProfiles{roles: map[string]authz.RoleID{"admin-1": authz.RoleAdministrator}})

	res := serveThrough(guard, "/residents")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestMaintenanceKeepsSigninReachable(t *testing.T) {
	guard := newGuard(t, true, &stubIdentity{}, &stubProfiles{})

	assert.Equal(t, http.StatusOK, serveThrough(guard, "/signin").Code)
	assert.Equal(t, http.StatusOK, serveThrough(guard, "/static/css/app.css").Code)
}

func TestMaintenanceOffPassesEveryone(t *testing.T) {
	guard := newGuard(t, false, &stubIdentity{}, &stubProfiles{})

	assert.Equal(t, http.StatusOK, serveThrough(guard, "/residents").Code)
}
