package ui

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"pcadash/adapters/excel"
	"pcadash/app"
	"pcadash/domain/insights"
	apperrors "pcadash/internal/errors"
	"pcadash/internal/profiling"
	"pcadash/ui/templates/fragments"
)

// defaultExplorerLimit caps the rows the data explorer renders unless ?limit= asks for more
const defaultExplorerLimit = 1000

type basePage struct {
	Title     string
	Active    string
	SessionID string
	LoadedAt  time.Time
	Filters   *filterPanel
}

type filterPanel struct {
	Options   app.FilterOptions
	Criteria  insights.Criteria
	RangeFrom time.Time
	RangeTo   time.Time
}

type overviewPage struct {
	basePage
	Overview template.HTML
	Parts    int
	Limits   insights.Limits
}

type explorerPage struct {
	basePage
	Notice   string
	Columns  []string
	Missing  []int
	Rows     [][]string
	Total    int
	Shown    int
	Profiles []profiling.ColumnProfile
}

type insightsPage struct {
	basePage
	Error     string
	View      app.InsightsView
	Table     resultTable
	ExportURL string
	JSONURL   string
}

type resultTable struct {
	Header []string
	Rows   []tableRow
}

type tableRow struct {
	Anomaly bool
	Cells   []string
}

type errorPage struct {
	basePage
	Message string
}

func (a *App) page(title, active string) basePage {
	s := a.service.Session()
	return basePage{
		Title:     title,
		Active:    active,
		SessionID: s.ID.String(),
		LoadedAt:  s.LoadedAt,
	}
}

// handleOverview renders the landing page
func (a *App) handleOverview(w http.ResponseWriter, r *http.Request) {
	s := a.service.Session()
	a.renderTemplate(w, r, http.StatusOK, fragments.OverviewPage, overviewPage{
		basePage: a.page("Overview", "overview"),
		Overview: a.overview,
		Parts:    s.Results.Len(),
		Limits:   s.Limits,
	})
}

// handleExplorer renders the processed dataset
func (a *App) handleExplorer(w http.ResponseWriter, r *http.Request) {
	s := a.service.Session()
	data := explorerPage{basePage: a.page("Data Explorer", "explorer")}

	if !s.HasProcessed() {
		data.Notice = "The processed dataset is not available."
		if s.ProcessedErr != nil {
			data.Notice = fmt.Sprintf("The processed dataset could not be loaded: %v", s.ProcessedErr)
		}
		a.renderTemplate(w, r, http.StatusOK, fragments.ExplorerPage, data)
		return
	}

	limit := defaultExplorerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			a.renderError(w, r, apperrors.InvalidInput(fmt.Sprintf("invalid limit %q", raw)))
			return
		}
		limit = n
	}

	table := s.Processed
	missing := table.MissingCount()
	data.Columns = table.Columns
	data.Missing = make([]int, len(table.Columns))
	for i, col := range table.Columns {
		data.Missing[i] = missing[col]
	}
	data.Total = len(table.Rows)
	data.Rows = table.Records()
	if len(data.Rows) > limit {
		data.Rows = data.Rows[:limit]
	}
	data.Shown = len(data.Rows)
	data.Profiles = a.service.ProcessedProfiles()

	a.renderTemplate(w, r, http.StatusOK, fragments.ExplorerPage, data)
}

// handleInsights renders the filtered PCA results with flags and KPIs
func (a *App) handleInsights(w http.ResponseWriter, r *http.Request) {
	opts := a.service.Options()
	status := http.StatusOK
	data := insightsPage{basePage: a.page("PCA Insights", "insights")}

	criteria, err := app.ParseCriteria(r.URL.Query(), opts)
	if err != nil {
		status = apperrors.HTTPStatus(err)
		data.Error = err.Error()
		criteria, _ = app.ParseCriteria(nil, opts)
	}

	view := a.service.View(criteria, "dashboard")
	data.View = view
	data.Table = buildResultTable(view, a.service.Session().Results)
	query := app.Encode(criteria).Encode()
	data.ExportURL = "/insights/export.xlsx"
	data.JSONURL = "/api/insights"
	if query != "" {
		data.ExportURL += "?" + query
		data.JSONURL += "?" + query
	}

	panel := &filterPanel{Options: opts, Criteria: criteria}
	switch {
	case criteria.TimeRange != nil:
		panel.RangeFrom, panel.RangeTo = criteria.TimeRange.From, criteria.TimeRange.To
	case opts.TimeBounds != nil:
		panel.RangeFrom, panel.RangeTo = opts.TimeBounds.From, opts.TimeBounds.To
	}
	data.Filters = panel

	a.renderTemplate(w, r, status, fragments.InsightsPage, data)
}

func buildResultTable(view app.InsightsView, results insights.ResultsTable) resultTable {
	caps := results.Capabilities
	table := resultTable{
		Header: excel.FlaggedHeader(caps, results.ExtraColumns),
		Rows:   make([]tableRow, len(view.Rows)),
	}
	for i, rec := range view.Rows {
		table.Rows[i] = tableRow{
			Anomaly: rec.Anomaly,
			Cells:   excel.FlaggedStrings(rec, caps, results.ExtraColumns),
		}
	}
	return table
}

// handleInsightsExport streams the filtered view as an xlsx workbook
func (a *App) handleInsightsExport(w http.ResponseWriter, r *http.Request) {
	criteria, err := app.ParseCriteria(r.URL.Query(), a.service.Options())
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	view := a.service.View(criteria, "export")
	results := a.service.Session().Results

	filename := fmt.Sprintf("pca_insights_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if err := excel.ExportFlagged(w, view.Rows, results.Capabilities, results.ExtraColumns); err != nil {
		a.logger.ErrorContext(r.Context(), "export failed", slog.String("error", err.Error()))
		return
	}
	a.recorder.ObserveExport()
}

// handleInsightsJSON returns the same view as the insights page
func (a *App) handleInsightsJSON(w http.ResponseWriter, r *http.Request) {
	criteria, err := app.ParseCriteria(r.URL.Query(), a.service.Options())
	if err != nil {
		a.renderProblem(w, r, err)
		return
	}
	render.JSON(w, r, a.service.View(criteria, "dashboard_api"))
}

// handleOptionsJSON returns the filter control values
func (a *App) handleOptionsJSON(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.service.Options())
}

// handleHealth reports the loaded session
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	s := a.service.Session()
	render.JSON(w, r, map[string]interface{}{
		"status":     "ok",
		"session_id": s.ID.String(),
		"loaded_at":  s.LoadedAt,
		"parts":      s.Results.Len(),
		"processed":  s.HasProcessed(),
	})
}

func (a *App) renderProblem(w http.ResponseWriter, r *http.Request, err error) {
	problem := apperrors.ToProblem(err, r.URL.Path)
	if problem.Status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed", slog.String("error", err.Error()))
	}
	if err := render.Render(w, r, problem); err != nil {
		a.logger.ErrorContext(r.Context(), "problem render failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

func (a *App) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	a.renderTemplate(w, r, status, fragments.ErrorPage, errorPage{
		basePage: a.page(http.StatusText(status), ""),
		Message:  err.Error(),
	})
}
