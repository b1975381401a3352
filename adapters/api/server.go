// Package api exposes the PCA insights over a JSON HTTP API built on gin.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pcadash/app"
	"pcadash/internal/logging"
	"pcadash/internal/metrics"
)

// Server wires the insights handler into a gin engine
type Server struct {
	engine  *gin.Engine
	handler *InsightsHandler
	logger  *slog.Logger
}

// NewServer creates the API server. gin.SetMode must be called before this.
func NewServer(service *app.InsightsService, recorder *metrics.Recorder, logger *slog.Logger) *Server {
	logger = logging.Component(logger, "api")

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		engine:  engine,
		handler: NewInsightsHandler(service, recorder, logger),
		logger:  logger,
	}
	s.setupRoutes(recorder)
	return s
}

func (s *Server) setupRoutes(recorder *metrics.Recorder) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if recorder != nil {
		s.engine.GET("/metrics", gin.WrapH(recorder.Handler()))
	}

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/session", s.handler.GetSession)
		v1.GET("/limits", s.handler.GetLimits)
		v1.GET("/options", s.handler.GetOptions)
		v1.GET("/processed/profile", s.handler.GetProcessedProfile)
		v1.GET("/insights", s.handler.GetInsights)
		v1.GET("/insights/export.xlsx", s.handler.ExportInsights)
	}
}

// Handler exposes the gin engine as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer builds the HTTP server for the API
func (s *Server) HTTPServer(port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
