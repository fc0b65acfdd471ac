package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func newTestModeAuth(t *testing.T) *Auth {
	t.Helper()
	t.Setenv("AUTH0_TEST_MODE", "1")
	t.Setenv("TEST_JWT_SECRET", testSecret)
	return NewAuth(nil, "aud", "iss")
}

func mintTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestUserIDFromAuthHeader(t *testing.T) {
	a := newTestModeAuth(t)
	token := mintTestToken(t, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	sub, err := a.UserIDFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "auth0|abc123" {
		t.Fatalf("unexpected subject %q", sub)
	}
}

func TestUserIDFromAuthHeaderRejectsGarbage(t *testing.T) {
	a := newTestModeAuth(t)

	cases := []string{
		"",
		"Bearer",
		"Bearer notatoken",
		"Bearer a.b",
	}
	for _, h := range cases {
		if _, err := a.UserIDFromAuthHeader(h); err == nil {
			t.Fatalf("header %q: expected error", h)
		}
	}
}

func TestUserIDFromAuthHeaderRejectsBadSignature(t *testing.T) {
	a := newTestModeAuth(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := a.UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestUserIDFromAuthHeaderRequiresSubject(t *testing.T) {
	a := newTestModeAuth(t)
	token := mintTestToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := a.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected missing sub to fail")
	}
}

func TestUserIDFromAuthHeaderRejectsExpired(t *testing.T) {
	a := newTestModeAuth(t)
	token := mintTestToken(t, jwt.MapClaims{
		"sub": "auth0|abc123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := a.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}
