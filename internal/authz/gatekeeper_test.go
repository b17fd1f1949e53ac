package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGatekeeper(identity IdentityProvider, store ProfileStore) *Gatekeeper {
	denied := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Akses Ditolak"))
	}
	return NewGatekeeper(identity, NewResolver(store, nil), NewRulesetHolder(nil), denied)
}

func TestRequireAPIUnauthenticated(t *testing.T) {
	gk := newTestGatekeeper(&stubIdentity{}, &stubProfileStore{})

	res := httptest.NewRecorder()
	handler := gk.RequireAPI(CapUsersManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	require.Equal(t, http.StatusUnauthorized, res.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestRequireAPIInsufficientRole(t *testing.T) {
	identity := &stubIdentity{subject: &Subject{ID: "u1"}}
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u1": FoundProfile(RoleWarga),
	}}
	gk := newTestGatekeeper(identity, store)

	res := httptest.NewRecorder()
	handler := gk.RequireAPI(CapUsersManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/admin/users", nil))

	require.Equal(t, http.StatusForbidden, res.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestRequireAPIAdminAllowedAndRoleStashed(t *testing.T) {
	identity := &stubIdentity{subject: &Subject{ID: "u1"}}
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u1": FoundProfile(RoleAdministrator),
	}}
	gk := newTestGatekeeper(identity, store)

	var stashed RoleID
	res := httptest.NewRecorder()
	handler := gk.RequireAPI(CapUsersManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stashed, _ = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, RoleAdministrator, stashed)
}

func TestRequirePageDeniesTerminally(t *testing.T) {
	identity := &stubIdentity{subject: &Subject{ID: "u1"}}
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u1": FoundProfile(RoleWarga),
	}}
	gk := newTestGatekeeper(identity, store)

	res := httptest.NewRecorder()
	handler := gk.RequirePage(CapSettingsManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/settings/system", nil))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, res.Header().Get("Location"), "denial must be terminal, never a redirect")
	assert.Contains(t, res.Body.String(), "Akses Ditolak")
}

func TestRequirePageResolvesPerMount(t *testing.T) {
	identity := &stubIdentity{subject: &Subject{ID: "u1"}}
	store := &stubProfileStore{results: map[string]ProfileLookupResult{
		"u1": FoundProfile(RoleAdministrator),
	}}
	gk := newTestGatekeeper(identity, store)

	handler := gk.RequirePage(CapSettingsManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/settings/system", nil))
		assert.Equal(t, http.StatusOK, res.Code)
	}
	assert.Equal(t, 3, store.calls, "each request must re-resolve, no shared cache")
}

func TestWithRoleStashesDefaultForAnonymous(t *testing.T) {
	gk := newTestGatekeeper(&stubIdentity{}, &stubProfileStore{})

	var stashed RoleID
	var ok bool
	res := httptest.NewRecorder()
	gk.WithRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stashed, ok = RoleFromContext(r.Context())
	})).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.Equal(t, RoleWarga, stashed)
}
