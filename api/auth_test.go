package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "unit-test-secret"

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	t.Setenv(envAuth0TestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	return NewAuth(nil, "", "")
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestUserIDFromAuthHeader(t *testing.T) {
	auth := newTestAuth(t)
	token := signTestToken(t, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	userID, err := auth.UserIDFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "auth0|abc123" {
		t.Fatalf("unexpected user id %q", userID)
	}
}

func TestUserIDFromAuthHeaderMissing(t *testing.T) {
	auth := newTestAuth(t)
	if _, err := auth.UserIDFromAuthHeader(""); err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestUserIDFromAuthHeaderExpiredToken(t *testing.T) {
	auth := newTestAuth(t)
	token := signTestToken(t, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := auth.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestUserIDFromAuthHeaderMissingSub(t *testing.T) {
	auth := newTestAuth(t)
	token := signTestToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := auth.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected error for missing sub claim")
	}
}

func TestUserIDFromAuthHeaderWrongSecret(t *testing.T) {
	auth := newTestAuth(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := auth.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected error for wrong signing secret")
	}
}

func TestUserIDFromAuthHeaderAudienceAndIssuer(t *testing.T) {
	t.Setenv(envAuth0TestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	auth := NewAuth(nil, "https://api.example.com", "https://tenant.auth0.com/")

	valid := signTestToken(t, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
		"aud": "https://api.example.com",
		"iss": "https://tenant.auth0.com/",
	})
	if _, err := auth.UserIDFromAuthHeader("Bearer " + valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrongAud := signTestToken(t, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
		"aud": "https://other.example.com",
		"iss": "https://tenant.auth0.com/",
	})
	if _, err := auth.UserIDFromAuthHeader("Bearer " + wrongAud); err == nil {
		t.Fatal("expected error for wrong audience")
	}
}
