package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pcadash/adapters/excel"
	"pcadash/app"
	apperrors "pcadash/internal/errors"
	"pcadash/internal/metrics"
)

// InsightsHandler serves the PCA insights view as JSON
type InsightsHandler struct {
	service  *app.InsightsService
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(service *app.InsightsService, recorder *metrics.Recorder, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{
		service:  service,
		recorder: recorder,
		logger:   logger,
	}
}

// GetSession describes the loaded inputs
func (h *InsightsHandler) GetSession(c *gin.Context) {
	s := h.service.Session()
	c.JSON(http.StatusOK, gin.H{
		"id":           s.ID.String(),
		"loaded_at":    s.LoadedAt,
		"parts":        s.Results.Len(),
		"capabilities": s.Results.Capabilities,
		"extra":        s.Results.ExtraColumns,
		"processed":    s.HasProcessed(),
		"sources": gin.H{
			"results":   s.Sources.ResultsFile,
			"limits":    s.Sources.LimitsFile,
			"processed": s.Sources.ProcessedFile,
		},
	})
}

// GetLimits returns the control limits in their file format
func (h *InsightsHandler) GetLimits(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Session().Limits)
}

// GetOptions returns the values the filters can take
func (h *InsightsHandler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Options())
}

// GetProcessedProfile describes the columns of the processed dataset
func (h *InsightsHandler) GetProcessedProfile(c *gin.Context) {
	profiles := h.service.ProcessedProfiles()
	if profiles == nil {
		h.respondError(c, apperrors.NotFound("processed dataset"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": profiles})
}

// GetInsights filters, flags and aggregates the results for the query criteria
func (h *InsightsHandler) GetInsights(c *gin.Context) {
	criteria, err := app.ParseCriteria(c.Request.URL.Query(), h.service.Options())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.View(criteria, "api"))
}

// ExportInsights streams the filtered view as an xlsx workbook
func (h *InsightsHandler) ExportInsights(c *gin.Context) {
	criteria, err := app.ParseCriteria(c.Request.URL.Query(), h.service.Options())
	if err != nil {
		h.respondError(c, err)
		return
	}
	view := h.service.View(criteria, "export")
	results := h.service.Session().Results

	filename := fmt.Sprintf("pca_insights_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := excel.ExportFlagged(c.Writer, view.Rows, results.Capabilities, results.ExtraColumns); err != nil {
		h.logger.Error("export failed", slog.String("error", err.Error()))
		return
	}
	h.recorder.ObserveExport()
}

func (h *InsightsHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": http.StatusText(status), "code": apperrors.CodeInternalError})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.GetCode(err)})
}
