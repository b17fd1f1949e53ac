package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/eresidence/eresidence/internal/auth"
	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
	_ "github.com/eresidence/eresidence/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine(authz.NewRulesetHolder(nil))
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	handler := auth.NewHandler(nil, auth.NewService(repo), templates, sessionManager, csrfManager)
	return handler, sessionManager
}

func TestSigninPage(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/signin", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.ShowSigninForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected signin form in body")
	}
}

func TestSigninInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID:           "7e9d5c2e-3a77-4f5f-86a7-0c9a5a8dd001",
		Email:        "warga@eresidence.local",
		PasswordHash: string(hashed),
		IsActive:     true,
	}})

	// Prime session and CSRF token via GET.
	getReq := httptest.NewRequest(http.MethodGet, "/signin", nil)
	sess, err := sessionManager.Load(context.Background(), getReq)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	getCtx := shared.ContextWithSession(getReq.Context(), sess)
	getRes := httptest.NewRecorder()
	handler.ShowSigninForTest(getRes, getReq.WithContext(getCtx))
	if err := sessionManager.Commit(getCtx, getRes, getReq, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	postData := url.Values{}
	postData.Set("email", "warga@eresidence.local")
	postData.Set("password", "wrongpass")
	postData.Set("csrf_token", sess.Get(shared.CSRFSessionKey))

	postReq := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(postData.Encode()))
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	postReq.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})

	loadedSess, err := sessionManager.Load(context.Background(), postReq)
	if err != nil {
		t.Fatalf("load session for post: %v", err)
	}
	postCtx := shared.ContextWithSession(postReq.Context(), loadedSess)

	res := httptest.NewRecorder()
	handler.HandleSigninForTest(res, postReq.WithContext(postCtx))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email atau password tidak valid") {
		t.Fatalf("expected error message in response")
	}
}

func TestSigninPostRateLimited(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	router := chi.NewRouter()
	handler.MountRoutes(router)

	form := url.Values{}
	form.Set("email", "warga@eresidence.local")
	form.Set("password", "wrongpass")

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "203.0.113.10:51000"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated signin attempts, got %d", last.Code)
	}

	// The limiter only guards the POST, so the signin page itself stays up.
	getReq := httptest.NewRequest(http.MethodGet, "/signin", nil)
	getReq.RemoteAddr = "203.0.113.10:51000"
	getRes := httptest.NewRecorder()
	router.ServeHTTP(getRes, getReq)
	if getRes.Code != http.StatusOK {
		t.Fatalf("expected signin page to remain reachable, got %d", getRes.Code)
	}
}

func TestSigninSuccessStoresSubjectAndHint(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &auth.User{
		ID:           "7e9d5c2e-3a77-4f5f-86a7-0c9a5a8dd001",
		Email:        "admin@eresidence.local",
		PasswordHash: string(hashed),
		RoleHint:     "admin",
		IsActive:     true,
	}
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: user})

	postData := url.Values{}
	postData.Set("email", user.Email)
	postData.Set("password", "correctpass")

	postReq := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(postData.Encode()))
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess, err := sessionManager.Load(context.Background(), postReq)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	postCtx := shared.ContextWithSession(postReq.Context(), sess)

	res := httptest.NewRecorder()
	handler.HandleSigninForTest(res, postReq.WithContext(postCtx))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if res.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to landing, got %q", res.Header().Get("Location"))
	}
	if sess.User() != user.ID {
		t.Fatalf("expected session subject %q, got %q", user.ID, sess.User())
	}
	if sess.RoleHint() != "admin" {
		t.Fatalf("expected role hint copied into session, got %q", sess.RoleHint())
	}

	// The provider must see the same subject the session carries.
	subject, err := auth.NewProvider().CurrentSubject(shared.ContextWithSession(context.Background(), sess))
	if err != nil {
		t.Fatalf("current subject: %v", err)
	}
	if subject == nil || subject.ID != user.ID || subject.RoleHint != "admin" {
		t.Fatalf("unexpected subject: %+v", subject)
	}
}

func TestCurrentSubjectWithoutSession(t *testing.T) {
	subject, err := auth.NewProvider().CurrentSubject(context.Background())
	if err != nil {
		t.Fatalf("current subject: %v", err)
	}
	if subject != nil {
		t.Fatalf("expected nil subject, got %+v", subject)
	}
}
