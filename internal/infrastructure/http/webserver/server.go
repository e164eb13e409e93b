// Package webserver provides the HTMX web frontend HTTP server.
package webserver

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satvika/web/internal/domain/parse"
	"github.com/satvika/web/internal/infrastructure/config"
	"github.com/satvika/web/internal/infrastructure/search"
	"github.com/satvika/web/internal/infrastructure/session"
	"github.com/satvika/web/internal/upstream"
	"github.com/satvika/web/pkg/healthcheck"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// WebServer renders the recipe and nutrition label frontend on top of
// the upstream REST API.
type WebServer struct {
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	router      *chi.Mux
	api         *upstream.Client
	sessions    session.Store
	templates   *template.Template
	validate    *validator.Validate
	healthCheck *healthcheck.HealthCheck
	searchSeq   *search.Sequencer
	hub         *Hub
	alerts      *AlertFeed
	limiter     *ipRateLimiter

	// Parse review state is UI-local and never leaves this process,
	// keyed by session ID. Entries inherit the owning session's expiry
	// so state from expired sessions is swept on the next access.
	reviewMu sync.Mutex
	reviews  map[string]reviewEntry
}

type reviewEntry struct {
	review  *parse.Review
	expires time.Time
}

// NewWebServer creates a new web frontend server instance.
func NewWebServer(
	cfg *config.Config,
	log *zap.Logger,
	api *upstream.Client,
	sessions session.Store,
	hc *healthcheck.HealthCheck,
) (*WebServer, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	hub := NewHub(log)

	s := &WebServer{
		config:      cfg,
		logger:      log,
		api:         api,
		sessions:    sessions,
		templates:   templates,
		validate:    validator.New(),
		healthCheck: hc,
		searchSeq:   search.NewSequencer(),
		hub:         hub,
		alerts:      NewAlertFeed(hub, log),
		limiter:     newIPRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize),
		reviews:     make(map[string]reviewEntry),
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures the web frontend routes.
func (s *WebServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.maintenanceMiddleware)
	r.Use(s.sessionMiddleware)
	r.Use(s.rateLimitMiddleware)

	// Static files
	staticContent, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	// Health check endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/ready", s.handleReadinessCheck)
	r.Get("/live", s.handleLivenessCheck)
	r.Handle("/metrics", promhttp.Handler())

	// Public pages
	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)
	r.Post("/auth/google", s.handleGoogleLogin)
	r.Post("/logout", s.handleLogout)

	// Protected pages
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/dashboard", s.handleDashboard)

		// Recipe pages
		r.Get("/recipes", s.handleRecipeList)
		r.Get("/recipes/new", s.handleNewRecipePage)
		r.Post("/recipes", s.handleCreateRecipe)
		r.Get("/recipes/{id}", s.handleRecipeDetail)
		r.Get("/recipes/{id}/edit", s.handleEditRecipePage)
		r.Post("/recipes/{id}", s.handleUpdateRecipe)
		r.Delete("/recipes/{id}", s.handleDeleteRecipe)
		r.Post("/recipes/{id}/analyze", s.handleAnalyze)
		r.Get("/recipes/{id}/compliance", s.handleCompliance)
		r.Get("/recipes/{id}/label", s.handleLabel)
		r.Get("/recipes/{id}/versions", s.handleVersions)
		r.Get("/recipes/{id}/export", s.handleExport)
		r.Post("/recipes/{id}/share", s.handleShare)

		// Parse flow
		r.Get("/parse", s.handleParsePage)
		r.Post("/parse", s.handleParseSubmit)
		r.Post("/parse/back", s.handleParseBack)
		r.Post("/parse/confirm", s.handleParseConfirm)

		// Ingredient browser
		r.Get("/ingredients", s.handleIngredientList)
		r.Get("/ingredients/{id}", s.handleIngredientDetail)

		// Batch CSV
		r.Get("/batch", s.handleBatchPage)
		r.Get("/batch/template", s.handleBatchTemplate)
		r.Post("/batch/upload", s.handleBatchUpload)
		r.Post("/batch/process", s.handleBatchProcess)

		// Settings and alerts
		r.Get("/settings", s.handleSettingsPage)
		r.Post("/settings", s.handleSettingsUpdate)
		r.Post("/settings/defaults", s.handleDefaultsUpdate)
		r.Get("/alerts", s.handleAlertsPage)
		r.Get("/ws/alerts", s.handleAlertsWS)
	})

	// HTMX partial endpoints, all behind authentication.
	r.Route("/htmx", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/ingredients/search", s.handleHTMXIngredientSearch)
		r.Post("/recipes/live-calculate", s.handleHTMXLiveCalculate)
		r.Post("/parse/remove/{index}", s.handleHTMXParseRemove)
		r.Post("/parse/weight/{index}", s.handleHTMXParseWeight)
		r.Post("/ai/analyze", s.handleHTMXAnalyzeQuestion)
		r.Post("/ai/suggest-name", s.handleHTMXSuggestName)
		r.Post("/ai/suggest-ingredients", s.handleHTMXSuggestIngredients)
		r.Post("/ai/translate", s.handleHTMXTranslate)
		r.Post("/ai/reformulate", s.handleHTMXReformulate)
		r.Post("/ai/allergens", s.handleHTMXAllergens)
		r.Get("/alerts/badge", s.handleHTMXAlertBadge)
	})

	return r
}

// Start starts the web frontend HTTP server.
func (s *WebServer) Start() error {
	s.logger.Info("Starting web frontend server",
		zap.String("address", s.server.Addr),
		zap.String("upstream", s.config.Upstream.BaseURL),
	)
	s.hub.Run()
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web frontend server")
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// AlertFetch returns the poll function that feeds the alert hub,
// suitable for wiring into a poller.
func (s *WebServer) AlertFetch() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := s.api.RegulatoryAlerts(ctx, s.config.Alerts.ServiceToken)
		if err != nil {
			return err
		}
		s.alerts.Update(res.Alerts)
		return nil
	}
}

// parseTemplates parses all HTML templates from the embedded filesystem.
func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatGrams": func(v float64) string {
			return fmt.Sprintf("%.1f g", v)
		},
		"formatValue": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"truncate": func(s string, n int) string {
			if len(s) <= n {
				return s
			}
			return s[:n] + "..."
		},
		"lower": strings.ToLower,
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	tmpl := template.New("").Funcs(funcMap)

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}
		name := strings.TrimPrefix(path, "templates/")
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tmpl, nil
}

// review returns the parse review bound to the given session,
// creating it on first use. Each call also sweeps entries whose
// sessions have expired, so abandoned reviews do not accumulate.
func (s *WebServer) review(sess *session.Session) *parse.Review {
	s.reviewMu.Lock()
	defer s.reviewMu.Unlock()

	now := time.Now()
	for id, e := range s.reviews {
		if now.After(e.expires) {
			delete(s.reviews, id)
		}
	}

	e, ok := s.reviews[sess.ID]
	if !ok {
		e = reviewEntry{review: parse.NewReview(), expires: sess.ExpiresAt}
		s.reviews[sess.ID] = e
	}
	return e.review
}

// dropReview discards per-session parse state, used at logout.
func (s *WebServer) dropReview(sessionID string) {
	s.reviewMu.Lock()
	defer s.reviewMu.Unlock()
	delete(s.reviews, sessionID)
}
