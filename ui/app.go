package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pcadash/app"
	"pcadash/internal/logging"
	"pcadash/internal/metrics"
)

//go:embed templates/*.html templates/fragments/*.html static/*
var embeddedFiles embed.FS

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	service   *app.InsightsService
	recorder  *metrics.Recorder
	logger    *slog.Logger
	templates *template.Template
	overview  template.HTML
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the dashboard over an insights service
func NewApp(service *app.InsightsService, recorder *metrics.Recorder, logger *slog.Logger) (*App, error) {
	funcMap := template.FuncMap{
		"fmtFloat": func(v float64) string { return fmt.Sprintf("%.3f", v) },
		"fmtPct":   func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.DateTime)
		},
		"formTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(app.FormTimeLayout)
		},
		"selected": func(selection []string, v string) bool {
			if selection == nil {
				return true
			}
			for _, s := range selection {
				if s == v {
					return true
				}
			}
			return false
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		recorder:  recorder,
		logger:    logging.Component(logger, "dashboard"),
		templates: templates,
		overview:  renderMarkdown(service.Session().Overview),
	}

	if missing := a.checkTemplates(); len(missing) > 0 {
		return nil, fmt.Errorf("missing templates: %v", missing)
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	staticFS, _ := fs.Sub(embeddedFiles, "static")
	a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages
	a.router.Get("/", a.handleOverview)
	a.router.Get("/explorer", a.handleExplorer)
	a.router.Get("/insights", a.handleInsights)
	a.router.Get("/insights/export.xlsx", a.handleInsightsExport)

	// JSON endpoints
	a.router.Route("/api", func(r chi.Router) {
		r.Get("/insights", a.handleInsightsJSON)
		r.Get("/options", a.handleOptionsJSON)
	})

	a.router.Get("/healthz", a.handleHealth)
	if a.recorder != nil {
		a.router.Handle("/metrics", a.recorder.Handler())
	}
}

// Handler exposes the router, e.g. for httptest
func (a *App) Handler() http.Handler {
	return a.router
}

// Server builds the HTTP server for the dashboard
func (a *App) Server(port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
