// Package insights holds the PCA Insights filter/flag engine: per-part T2/Q records,
// the two control limits, filter criteria and the KPI summary shown on the dashboard.
package insights

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Column names of the PCA results table
const (
	ColumnPartID     = "Part_ID"
	ColumnT2         = "T2"
	ColumnQ          = "Q"
	ColumnRejectType = "Reject_Type"
	ColumnTimestamp  = "Timestamp"
)

// NoReject is shown as the top reject type when no reject labels are available.
const NoReject = "N/A"

// RequiredColumns must be present in every PCA results table.
var RequiredColumns = []string{ColumnPartID, ColumnT2, ColumnQ}

var ErrInvalidLimits = errors.New("invalid control limits")

// PartRecord is one row of the PCA results table.
type PartRecord struct {
	PartID     string            `json:"part_id"`
	T2         float64           `json:"t2"`
	Q          float64           `json:"q"`
	RejectType string            `json:"reject_type,omitempty"` // "" when null
	Timestamp  time.Time         `json:"timestamp,omitempty"`   // zero when null
	Extra      map[string]string `json:"extra,omitempty"`       // pass-through columns (scores etc.)
}

// HasRejectType reports whether the row carries a non-null reject label.
func (r PartRecord) HasRejectType() bool {
	return r.RejectType != ""
}

// HasTimestamp reports whether the row carries a non-null timestamp.
func (r PartRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Capabilities describes which optional columns the loaded table provides.
// It is computed once at load time and threaded through as configuration.
type Capabilities struct {
	HasRejectType bool `json:"has_reject_type"`
	HasTimestamp  bool `json:"has_timestamp"`
}

// ResultsTable is the immutable PCA results table for a session.
type ResultsTable struct {
	Records      []PartRecord `json:"records"`
	Capabilities Capabilities `json:"capabilities"`
	ExtraColumns []string     `json:"extra_columns,omitempty"`
}

// Len returns the row count.
func (t ResultsTable) Len() int {
	return len(t.Records)
}

// Limits are the session's statistical control limits.
type Limits struct {
	T2Limit float64 `json:"T2_limit"`
	QLimit  float64 `json:"Q_limit"`
}

// Validate checks both limits are finite numbers.
func (l Limits) Validate() error {
	if math.IsNaN(l.T2Limit) || math.IsInf(l.T2Limit, 0) {
		return fmt.Errorf("%w: T2_limit must be finite, got %v", ErrInvalidLimits, l.T2Limit)
	}
	if math.IsNaN(l.QLimit) || math.IsInf(l.QLimit, 0) {
		return fmt.Errorf("%w: Q_limit must be finite, got %v", ErrInvalidLimits, l.QLimit)
	}
	return nil
}

// TimeRange is an inclusive interval.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether ts falls within [From, To].
func (r TimeRange) Contains(ts time.Time) bool {
	return !ts.Before(r.From) && !ts.After(r.To)
}

// Criteria selects rows of a ResultsTable.
//
// A nil slice or nil range means no filtering on that dimension. A non-nil empty
// slice matches nothing.
type Criteria struct {
	PartIDs     []string   `json:"part_ids,omitempty"`
	RejectTypes []string   `json:"reject_types,omitempty"`
	TimeRange   *TimeRange `json:"time_range,omitempty"`
}

// FlaggedRecord is a filtered row with its derived anomaly flags.
type FlaggedRecord struct {
	PartRecord
	T2Flag  bool `json:"t2_flag"`
	QFlag   bool `json:"q_flag"`
	Anomaly bool `json:"anomaly"`
}

// KPISummary aggregates the current filtered view.
type KPISummary struct {
	Total        int     `json:"total"`
	Anomalies    int     `json:"anomalies"`
	PctAnomalies float64 `json:"pct_anomalies"`
	TopReject    string  `json:"top_reject"`
}
