package shared

import (
	"context"
	"errors"
	"testing"

	_ "github.com/eresidence/eresidence/testing"
)

func TestEnsureTokenMintsOncePerSession(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := &Session{ID: "sess-1", values: make(map[string]string)}

	token, err := m.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token to be minted")
	}

	again, err := m.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure token second call: %v", err)
	}
	if again != token {
		t.Fatalf("expected stable token per session, got %q then %q", token, again)
	}

	if _, err := m.EnsureToken(context.Background(), nil); err == nil {
		t.Fatal("expected error without a session")
	}
}

func TestVerifyToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := &Session{ID: "sess-1", values: make(map[string]string)}

	token, err := m.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}

	if err := m.VerifyToken(context.Background(), sess, token); err != nil {
		t.Fatalf("expected valid token to verify, got %v", err)
	}
	if err := m.VerifyToken(context.Background(), sess, "tampered"); !errors.Is(err, ErrCSRFTokenMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if err := m.VerifyToken(context.Background(), sess, ""); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("expected missing error for empty token, got %v", err)
	}
	if err := m.VerifyToken(context.Background(), nil, token); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("expected missing error without session, got %v", err)
	}
}
