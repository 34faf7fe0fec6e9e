// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-session-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestParseSession(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "user-1",
			"name": "Sam",
			"plan": "pro",
		})

		session, err := ParseSession(token, testSecret)
		if err != nil {
			t.Fatalf("ParseSession failed: %v", err)
		}
		if session.UserID != "user-1" || session.Name != "Sam" || session.Plan != "pro" {
			t.Errorf("Unexpected session: %+v", session)
		}
	})

	t.Run("defaults to free plan", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-2"})

		session, err := ParseSession(token, testSecret)
		if err != nil {
			t.Fatalf("ParseSession failed: %v", err)
		}
		if session.Plan != "free" {
			t.Errorf("Expected free plan, got %q", session.Plan)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-3"})

		if _, err := ParseSession(token, testSecret); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"name": "Nobody"})

		if _, err := ParseSession(token, testSecret); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := ParseSession("not-a-token", testSecret); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestWithSession(t *testing.T) {
	capture := func(dst **Session) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			*dst = SessionFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}
	}

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "name": "Sam"})

	t.Run("bearer header", func(t *testing.T) {
		var got *Session
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		WithSession(testSecret, capture(&got))(httptest.NewRecorder(), req)

		if got == nil || got.UserID != "user-1" {
			t.Errorf("Expected session for user-1, got %+v", got)
		}
	})

	t.Run("session cookie", func(t *testing.T) {
		var got *Session
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

		WithSession(testSecret, capture(&got))(httptest.NewRecorder(), req)

		if got == nil || got.UserID != "user-1" {
			t.Errorf("Expected session for user-1, got %+v", got)
		}
	})

	t.Run("no token means anonymous", func(t *testing.T) {
		var got *Session
		req := httptest.NewRequest("GET", "/", nil)

		w := httptest.NewRecorder()
		WithSession(testSecret, capture(&got))(w, req)

		if got != nil {
			t.Errorf("Expected anonymous, got %+v", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Anonymous request must still be served, got %d", w.Code)
		}
	})

	t.Run("invalid token means anonymous", func(t *testing.T) {
		var got *Session
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer tampered")

		w := httptest.NewRecorder()
		WithSession(testSecret, capture(&got))(w, req)

		if got != nil {
			t.Errorf("Expected anonymous, got %+v", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Invalid token must not block the request, got %d", w.Code)
		}
	})
}

func TestHashIP(t *testing.T) {
	h1 := HashIP("192.168.1.1", "salt")
	h2 := HashIP("192.168.1.1", "salt")
	if h1 != h2 {
		t.Error("Same input must hash identically")
	}

	if HashIP("192.168.1.2", "salt") == h1 {
		t.Error("Different IPs must hash differently")
	}
	if HashIP("192.168.1.1", "pepper") == h1 {
		t.Error("Different salts must hash differently")
	}

	if len(h1) != 16 {
		t.Errorf("Expected 16 hex chars, got %d", len(h1))
	}
}
