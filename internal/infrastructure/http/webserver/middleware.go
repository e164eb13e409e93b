package webserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satvika/web/internal/infrastructure/session"
	apperrors "github.com/satvika/web/pkg/errors"
)

type contextKey string

const sessionContextKey contextKey = "session"

// sessionMiddleware resolves the session cookie into a session and
// attaches it to the request context. Anonymous requests pass through.
func (s *WebServer) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.Session.CookieName)
		if err == nil && cookie.Value != "" {
			sess, err := s.sessions.Get(r.Context(), cookie.Value)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), sessionContextKey, sess)
				r = r.WithContext(ctx)
			case !errors.Is(err, session.ErrNotFound):
				// A store failure is not a missing session. The request
				// proceeds anonymously but the failure is visible.
				appErr := apperrors.NewSessionStoreError("load", err)
				s.logger.Error(appErr.Message,
					zap.String("code", string(apperrors.GetCode(appErr))),
					zap.Error(err),
				)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// currentSession returns the session attached by sessionMiddleware, or nil.
func currentSession(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionContextKey).(*session.Session)
	return sess
}

// requireAuth gates protected routes. HTMX requests get a fragment so
// the client can redirect itself; full page loads get a 303 to /login.
func (s *WebServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		if sess == nil {
			s.redirectToLogin(w, r)
			return
		}

		// Refresh the upstream token before it lapses so in-flight
		// page loads never race expiry.
		if session.NeedsRefresh(sess.Token, s.config.Upstream.RefreshLeeway) {
			token, err := s.api.RefreshToken(r.Context(), sess.Token)
			if err != nil {
				s.logger.Warn("token refresh failed", zap.Error(err))
				s.evictSession(w, r, sess)
				s.redirectToLogin(w, r)
				return
			}
			sess.Token = token
			sess.ExpiresAt = session.ExpiryFor(token, sess.ExpiresAt)
			if err := s.sessions.Put(r.Context(), sess); err != nil {
				s.logger.Error("failed to persist refreshed session", zap.Error(err))
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *WebServer) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`<div class="auth-expired">Session expired. <a href="/login">Sign in again</a></div>`))
		return
	}
	target := "/login"
	if r.URL.Path != "/" && r.Method == http.MethodGet {
		target += "?redirect=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// evictSession removes a session whose token the upstream no longer accepts.
func (s *WebServer) evictSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		s.logger.Error("failed to delete session", zap.Error(err))
	}
	s.dropReview(sess.ID)
	http.SetCookie(w, session.ExpiredCookie(s.config.Session.CookieName, s.config.Session.CookieSecure))
}

// maintenanceMiddleware serves a static notice while the flag is set.
// Health endpoints stay reachable so orchestrators see the truth.
func (s *WebServer) maintenanceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Features.MaintenanceMode && !strings.HasPrefix(r.URL.Path, "/health") &&
			r.URL.Path != "/ready" && r.URL.Path != "/live" && r.URL.Path != "/metrics" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("<h1>Down for maintenance</h1><p>We will be back shortly.</p>"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware sets the standard browser hardening headers.
func (s *WebServer) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self' ws: wss:")
		if s.config.IsProduction() {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// ipRateLimiter keeps a token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPRateLimiter(requestsPerMinute, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (s *WebServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.RateLimit.Enable {
			next.ServeHTTP(w, r)
			return
		}
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !s.limiter.allow(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
