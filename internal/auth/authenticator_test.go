package auth

import (
	"errors"
	"testing"
	"time"
)

type stubVerifier struct {
	claims *Claims
	err    error
}

func (s stubVerifier) Validate(string) (*Claims, error) {
	return s.claims, s.err
}

func TestAuthenticator_LegacyToken(t *testing.T) {
	token, err := IssueLegacyToken("u1", "ops@example.com", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueLegacyToken failed: %v", err)
	}

	id, err := NewAuthenticator(nil, "secret").Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if id.UserID != "u1" || id.Email != "ops@example.com" {
		t.Errorf("unexpected identity %+v", id)
	}

	if _, err := NewAuthenticator(nil, "other").Authenticate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestAuthenticator_ExpiredLegacyToken(t *testing.T) {
	token, err := IssueLegacyToken("u1", "", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("IssueLegacyToken failed: %v", err)
	}
	if _, err := NewAuthenticator(nil, "secret").Authenticate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticator_VerifierFirst(t *testing.T) {
	a := NewAuthenticator(stubVerifier{claims: &Claims{UserID: "oidc-user", Name: "Ada"}}, "secret")

	id, err := a.Authenticate("anything")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if id.UserID != "oidc-user" || id.Name != "Ada" {
		t.Errorf("unexpected identity %+v", id)
	}

	a = NewAuthenticator(stubVerifier{err: errors.New("bad")}, "")
	if _, err := a.Authenticate("anything"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	if _, err := NewAuthenticator(nil, "").Authenticate("anything"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, err := BearerToken("Bearer abc"); err != nil || tok != "abc" {
		t.Errorf("unexpected result %q %v", tok, err)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer "} {
		if _, err := BearerToken(h); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken for %q, got %v", h, err)
		}
	}
}
