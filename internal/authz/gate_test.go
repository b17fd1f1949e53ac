package authz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentity struct {
	subject *Subject
	err     error
}

func (s *stubIdentity) CurrentSubject(ctx context.Context) (*Subject, error) {
	return s.subject, s.err
}

func gateRequest(t *testing.T, gate *RouteGate, path string) *httptest.ResponseRecorder {
	t.Helper()
	reached := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	res := httptest.NewRecorder()
	gate.Middleware(reached).ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
	return res
}

func TestGateRedirectsAnonymousFromProtectedPath(t *testing.T) {
	gate := NewRouteGate(&stubIdentity{}, nil)

	res := gateRequest(t, gate, "/residents")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/signin", res.Header().Get("Location"))
}

func TestGateRejectsAnonymousAPIWithJSON(t *testing.T) {
	gate := NewRouteGate(&stubIdentity{}, nil)

	res := gateRequest(t, gate, "/api/transactions")
	require.Equal(t, http.StatusUnauthorized, res.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"], `denied API calls must carry {"error": ...}`)
}

func TestGateBouncesSignedInFromPublicOnlyPath(t *testing.T) {
	gate := NewRouteGate(&stubIdentity{subject: &Subject{ID: "u1"}}, nil)

	for _, path := range []string{"/signin", "/signup", "/reset-password"} {
		res := gateRequest(t, gate, path)
		assert.Equal(t, http.StatusSeeOther, res.Code, path)
		assert.Equal(t, "/", res.Header().Get("Location"), path)
	}
}

func TestGateProceedsOtherwise(t *testing.T) {
	signedIn := NewRouteGate(&stubIdentity{subject: &Subject{ID: "u1"}}, nil)
	assert.Equal(t, http.StatusOK, gateRequest(t, signedIn, "/residents").Code)

	anonymous := NewRouteGate(&stubIdentity{}, nil)
	assert.Equal(t, http.StatusOK, gateRequest(t, anonymous, "/signin").Code)
}

func TestGateNeverInterceptsStaticPaths(t *testing.T) {
	counting := &stubIdentity{}
	gate := NewRouteGate(counting, nil)

	for _, path := range []string{"/static/css/app.css", "/favicon.ico", "/images/logo.png", "/healthz", "/metrics"} {
		res := gateRequest(t, gate, path)
		assert.Equal(t, http.StatusOK, res.Code, path)
	}
}

func TestGateTreatsIdentityErrorAsAnonymous(t *testing.T) {
	gate := NewRouteGate(&stubIdentity{err: errors.New("provider outage")}, nil)

	res := gateRequest(t, gate, "/residents")
	assert.Equal(t, http.StatusSeeOther, res.Code, "identity failure must fail closed to the sign-in redirect, not a 500")
	assert.Equal(t, "/signin", res.Header().Get("Location"))
}
