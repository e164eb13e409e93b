// Package session stores the per-browser login state: the upstream JWT,
// the user identity, and transient flash messages. Stores are pluggable
// so a single instance can use memory and a multi-instance deployment
// can share Redis.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID is unknown or expired.
var ErrNotFound = errors.New("session: not found")

// Session is one logged-in browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	// Flash is a one-shot notice rendered on the next page load.
	Flash string `json:"flash,omitempty"`
}

// Expired reports whether the session has passed its TTL.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store persists sessions keyed by ID.
type Store interface {
	// Get returns the session or ErrNotFound. Expired sessions are
	// treated as missing.
	Get(ctx context.Context, id string) (*Session, error)
	// Put inserts or replaces a session.
	Put(ctx context.Context, s *Session) error
	// Delete removes a session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}

// New creates a session for a fresh login.
func New(userID int, username, token string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Cookie builds the session cookie for s.
func Cookie(name string, s *Session, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	}
}

// ExpiredCookie builds the cookie that clears the session client-side.
func ExpiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
