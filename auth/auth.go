// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionCookie is the cookie the identity provider sets for browsers.
// API clients send the same token as an Authorization bearer header.
const SessionCookie = "session-token"

// Session is the opaque authenticated identity supplied by the external
// identity provider. The server never issues these itself.
type Session struct {
	UserID string
	Name   string
	Plan   string
}

type sessionKey struct{}

// ParseSession validates a signed session token and extracts its claims.
func ParseSession(token, secret string) (*Session, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	name, _ := claims["name"].(string)
	plan, _ := claims["plan"].(string)
	if plan == "" {
		plan = "free"
	}

	return &Session{UserID: sub, Name: name, Plan: plan}, nil
}

// WithSession resolves the caller's identity and stores it in the request
// context. A missing or invalid token means an anonymous caller, never an
// error: identity is optional on every route that uses it.
func WithSession(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}

		if token != "" {
			if session, err := ParseSession(token, secret); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, session))
			}
		}

		next(w, r)
	}
}

// SessionFromContext returns the caller's session, or nil for anonymous
// requests.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
