package webserver

import "net/http"

func (s *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	dash, err := s.api.Dashboard(r.Context(), sess.Token)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	// Greeting falls back to the session username when the profile
	// endpoint is unavailable.
	greeting := sess.Username
	if profile, err := s.api.Profile(r.Context(), sess.Token); err == nil && profile.FirstName != "" {
		greeting = profile.FirstName
	}

	s.renderTemplate(w, r, "pages/dashboard.html", map[string]interface{}{
		"Dashboard": dash,
		"Greeting":  greeting,
	})
}
