package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrNotConfigured = errors.New("authentication not configured")
)

// Identity is the authenticated caller
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Authenticator verifies bearer tokens against the OIDC issuer first and
// falls back to legacy HMAC tokens when a secret is configured.
type Authenticator struct {
	verifier     TokenVerifier
	legacySecret string
}

func NewAuthenticator(verifier TokenVerifier, legacySecret string) *Authenticator {
	return &Authenticator{verifier: verifier, legacySecret: legacySecret}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

func (a *Authenticator) Authenticate(token string) (*Identity, error) {
	if a.verifier == nil && a.legacySecret == "" {
		return nil, ErrNotConfigured
	}
	if a.verifier != nil {
		if claims, err := a.verifier.Validate(token); err == nil {
			return &Identity{UserID: claims.UserID, Email: claims.Email, Name: claims.DisplayName()}, nil
		}
	}
	if a.legacySecret != "" {
		if claims, err := ValidateLegacyToken(token, a.legacySecret); err == nil {
			return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
		}
	}
	return nil, ErrInvalidToken
}
