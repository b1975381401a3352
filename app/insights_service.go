package app

import (
	"log/slog"
	"time"

	"github.com/montanaflynn/stats"

	"pcadash/domain/insights"
	"pcadash/internal/logging"
	"pcadash/internal/metrics"
	"pcadash/internal/profiling"
	"pcadash/internal/session"
)

// InsightsService recomputes the PCA Insights view for each set of filter criteria.
// It holds only the immutable session, so it is safe for concurrent requests.
type InsightsService struct {
	session  *session.Session
	recorder *metrics.Recorder
	logger   *slog.Logger
	options  FilterOptions
	profiles []profiling.ColumnProfile
}

// FilterOptions are the values offered by the filter controls.
type FilterOptions struct {
	PartIDs      []string              `json:"part_ids"`
	RejectTypes  []string              `json:"reject_types,omitempty"`
	TimeBounds   *insights.TimeRange   `json:"time_bounds,omitempty"`
	Capabilities insights.Capabilities `json:"capabilities"`
}

// StatSummary describes one statistic over the filtered rows.
type StatSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// InsightsView is everything the insights page renders.
type InsightsView struct {
	Criteria insights.Criteria        `json:"criteria"`
	Limits   insights.Limits          `json:"limits"`
	Rows     []insights.FlaggedRecord `json:"rows"`
	KPIs     insights.KPISummary      `json:"kpis"`
	T2Stats  *StatSummary             `json:"t2_stats,omitempty"`
	QStats   *StatSummary             `json:"q_stats,omitempty"`
}

// NewInsightsService creates an insights service over a loaded session
func NewInsightsService(s *session.Session, recorder *metrics.Recorder, logger *slog.Logger) *InsightsService {
	opts := FilterOptions{
		PartIDs:      insights.DistinctPartIDs(s.Results),
		RejectTypes:  insights.DistinctRejectTypes(s.Results),
		Capabilities: s.Results.Capabilities,
	}
	if bounds, ok := insights.TimeBounds(s.Results); ok {
		opts.TimeBounds = bounds
	}
	svc := &InsightsService{
		session:  s,
		recorder: recorder,
		logger:   logging.Component(logger, "insights_service"),
		options:  opts,
	}
	if s.HasProcessed() {
		svc.profiles = profiling.ProfileTable(s.Processed)
	}
	return svc
}

// Session returns the underlying session.
func (s *InsightsService) Session() *session.Session {
	return s.session
}

// Options returns the filter control values.
func (s *InsightsService) Options() FilterOptions {
	return s.options
}

// ProcessedProfiles describes the columns of the processed dataset, nil when it is unavailable.
func (s *InsightsService) ProcessedProfiles() []profiling.ColumnProfile {
	return s.profiles
}

// View filters, flags and aggregates the session's results. surface labels the
// caller in metrics ("dashboard", "api", "export").
func (s *InsightsService) View(criteria insights.Criteria, surface string) InsightsView {
	start := time.Now()

	filtered := insights.ApplyFilters(s.session.Results, criteria)
	flagged := insights.ComputeFlags(filtered, s.session.Limits)
	kpis := insights.ComputeKPIs(flagged, filtered.Capabilities)

	view := InsightsView{
		Criteria: criteria,
		Limits:   s.session.Limits,
		Rows:     flagged,
		KPIs:     kpis,
	}
	if len(flagged) > 0 {
		t2 := make(stats.Float64Data, len(flagged))
		q := make(stats.Float64Data, len(flagged))
		for i, rec := range flagged {
			t2[i] = rec.T2
			q[i] = rec.Q
		}
		view.T2Stats = summarize(t2)
		view.QStats = summarize(q)
	}

	elapsed := time.Since(start)
	s.recorder.ObserveView(surface, kpis.Total, kpis.Anomalies, elapsed)
	s.logger.Debug("insights view computed",
		slog.String("surface", surface),
		slog.Int("rows", kpis.Total),
		slog.Int("anomalies", kpis.Anomalies),
		slog.Duration("elapsed", elapsed))
	return view
}

func summarize(data stats.Float64Data) *StatSummary {
	mean, err := data.Mean()
	if err != nil {
		return nil
	}
	median, err := data.Median()
	if err != nil {
		return nil
	}
	max, err := data.Max()
	if err != nil {
		return nil
	}
	p95, err := data.Percentile(95)
	if err != nil {
		p95 = max
	}
	return &StatSummary{Mean: mean, Median: median, P95: p95, Max: max}
}
