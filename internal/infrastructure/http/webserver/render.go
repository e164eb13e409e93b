package webserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/satvika/web/internal/upstream"
	apperrors "github.com/satvika/web/pkg/errors"
)

// renderTemplate executes a page template with the shared data envelope.
func (s *WebServer) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	if sess := currentSession(r); sess != nil {
		data["Session"] = sess
		data["Username"] = sess.Username
		if sess.Flash != "" {
			data["Flash"] = sess.Flash
			sess.Flash = ""
			if err := s.sessions.Put(r.Context(), sess); err != nil {
				s.logger.Warn("failed to clear flash", zap.Error(err))
			}
		}
	}
	data["UnseenAlerts"] = s.alerts.UnseenCount()

	// Buffer so a template failure can still produce a clean 500.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template execution failed",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// setFlash queues a one-shot notice for the next rendered page.
func (s *WebServer) setFlash(r *http.Request, message string) {
	sess := currentSession(r)
	if sess == nil {
		return
	}
	sess.Flash = message
	if err := s.sessions.Put(r.Context(), sess); err != nil {
		s.logger.Warn("failed to set flash", zap.Error(err))
	}
}

// renderError renders the shared error page with the given status.
func (s *WebServer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.WriteHeader(status)
	s.renderTemplate(w, r, "pages/error.html", map[string]interface{}{
		"Status":  status,
		"Message": message,
	})
}

// renderUpstreamError maps an API client error onto the right user
// response. A 401 means the stored token is dead: the session is
// evicted and the user sent back to login.
func (s *WebServer) renderUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upstream.ErrUnauthorized):
		if sess := currentSession(r); sess != nil {
			s.evictSession(w, r, sess)
		}
		s.redirectToLogin(w, r)
	case errors.Is(err, upstream.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "The requested resource was not found.")
	case errors.Is(err, upstream.ErrRateLimited):
		s.renderError(w, r, http.StatusTooManyRequests, "Too many requests. Please slow down and try again.")
	default:
		s.logger.Error("upstream request failed", zap.Error(err))
		appErr := apperrors.NewUpstreamError("nutrition API", err)
		s.renderError(w, r, appErr.StatusCode(), appErr.Message)
	}
}

// renderPartial executes an HTMX fragment template without the page envelope.
func (s *WebServer) renderPartial(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("partial execution failed",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// partialError writes a small error fragment HTMX can swap in place.
func (s *WebServer) partialError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	s.templates.ExecuteTemplate(w, "partials/error.html", map[string]interface{}{
		"Message": message,
	})
}

// Health check handlers

func (s *WebServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.healthCheck.Run(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}

func (s *WebServer) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	report := s.healthCheck.Run(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !report.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func (s *WebServer) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}
