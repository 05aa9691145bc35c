// Package session holds the client-side login state and the guard that
// decides which pages a session may open.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the account attached to a session, as returned by the auth
// endpoints.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the persisted login: the bearer token and the user it was
// issued to. A nil *Session means nobody is logged in.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ExpiresAt reads the exp claim from the token without verifying the
// signature. The server remains the authority; this only lets the client skip
// calls it knows will be rejected. ok is false when the token has no readable
// expiry.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Valid reports whether the session carries a token that hasn't expired as of
// now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if exp, ok := s.ExpiresAt(); ok && !now.Before(exp) {
		return false
	}
	return true
}
