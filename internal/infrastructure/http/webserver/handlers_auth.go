package webserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/satvika/web/internal/infrastructure/session"
	"github.com/satvika/web/internal/upstream"
)

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	if currentSession(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, r, "pages/home.html", nil)
}

func (s *WebServer) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if currentSession(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, r, "pages/login.html", map[string]interface{}{
		"Redirect": r.URL.Query().Get("redirect"),
	})
}

func (s *WebServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.renderTemplate(w, r, "pages/login.html", map[string]interface{}{
			"Error":    "Username and password are required.",
			"Username": username,
		})
		return
	}

	auth, err := s.api.Login(r.Context(), username, password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("username", username), zap.Error(err))
		s.renderTemplate(w, r, "pages/login.html", map[string]interface{}{
			"Error":    "Invalid username or password.",
			"Username": username,
		})
		return
	}

	if !s.establishSession(w, r, auth) {
		return
	}
	s.redirectAfterLogin(w, r)
}

func (s *WebServer) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if currentSession(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, r, "pages/register.html", nil)
}

func (s *WebServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	req := upstream.RegisterRequest{
		Username:  strings.TrimSpace(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
	}
	if err := s.validate.Struct(req); err != nil {
		s.renderTemplate(w, r, "pages/register.html", map[string]interface{}{
			"Error": "Please check the highlighted fields and try again.",
			"Form":  req,
		})
		return
	}

	auth, err := s.api.Register(r.Context(), req)
	if err != nil {
		s.logger.Info("registration rejected", zap.String("username", req.Username), zap.Error(err))
		s.renderTemplate(w, r, "pages/register.html", map[string]interface{}{
			"Error": upstreamMessage(err, "Registration failed. The username may be taken."),
			"Form":  req,
		})
		return
	}

	if !s.establishSession(w, r, auth) {
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleGoogleLogin exchanges a Google ID token credential for a session.
func (s *WebServer) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableGoogleLogin {
		s.renderError(w, r, http.StatusNotFound, "Google sign-in is not enabled.")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	credential := r.FormValue("credential")
	if credential == "" {
		s.renderError(w, r, http.StatusBadRequest, "Missing sign-in credential.")
		return
	}

	auth, err := s.api.GoogleLogin(r.Context(), credential)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	if !s.establishSession(w, r, auth) {
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *WebServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := currentSession(r); sess != nil {
		if err := s.api.Logout(r.Context(), sess.Token); err != nil {
			// Local state is cleared regardless of the API outcome.
			s.logger.Warn("upstream logout failed", zap.Error(err))
		}
		s.evictSession(w, r, sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *WebServer) establishSession(w http.ResponseWriter, r *http.Request, auth *upstream.AuthResponse) bool {
	sess := session.New(auth.User.ID, auth.User.Username, auth.Token, s.config.Session.TTL)
	sess.ExpiresAt = session.ExpiryFor(auth.Token, sess.ExpiresAt)
	if err := s.sessions.Put(r.Context(), sess); err != nil {
		s.logger.Error("failed to store session", zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError, "Could not start your session. Please try again.")
		return false
	}
	http.SetCookie(w, session.Cookie(s.config.Session.CookieName, sess, s.config.Session.CookieSecure))
	return true
}

// redirectAfterLogin honors a same-site redirect target from the login form.
func (s *WebServer) redirectAfterLogin(w http.ResponseWriter, r *http.Request) {
	target := r.FormValue("redirect")
	if target != "" {
		if u, err := url.Parse(target); err == nil && u.Host == "" && strings.HasPrefix(u.Path, "/") {
			http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// upstreamMessage surfaces the API's own message when it sent one.
func upstreamMessage(err error, fallback string) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
