package insights

import (
	"sort"
	"time"
)

// ApplyFilters returns the rows of table matching every supplied criterion.
//
// Reject-type and time criteria are ignored when the table lacks the column. A row
// with a null reject type never matches a reject-type criterion, and a row with a
// null timestamp never matches a time range. The input table is not modified and
// the result never shares its backing array.
func ApplyFilters(table ResultsTable, criteria Criteria) ResultsTable {
	parts := toSet(criteria.PartIDs)
	rejects := toSet(criteria.RejectTypes)
	if !table.Capabilities.HasRejectType {
		rejects = nil
	}
	timeRange := criteria.TimeRange
	if !table.Capabilities.HasTimestamp {
		timeRange = nil
	}

	out := ResultsTable{
		Records:      make([]PartRecord, 0, len(table.Records)),
		Capabilities: table.Capabilities,
		ExtraColumns: table.ExtraColumns,
	}
	for _, rec := range table.Records {
		if parts != nil && !parts[rec.PartID] {
			continue
		}
		if rejects != nil && (!rec.HasRejectType() || !rejects[rec.RejectType]) {
			continue
		}
		if timeRange != nil && (!rec.HasTimestamp() || !timeRange.Contains(rec.Timestamp)) {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// toSet returns nil for a nil slice so callers can tell "no criterion" from "empty selection".
func toSet(values []string) map[string]bool {
	if values == nil {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// ComputeFlags derives the T2, Q and combined anomaly flags for every row.
// A value equal to its limit is in control.
func ComputeFlags(table ResultsTable, limits Limits) []FlaggedRecord {
	flagged := make([]FlaggedRecord, len(table.Records))
	for i, rec := range table.Records {
		t2 := rec.T2 > limits.T2Limit
		q := rec.Q > limits.QLimit
		flagged[i] = FlaggedRecord{
			PartRecord: rec,
			T2Flag:     t2,
			QFlag:      q,
			Anomaly:    t2 || q,
		}
	}
	return flagged
}

// ComputeKPIs aggregates a flagged view into the four dashboard tiles.
func ComputeKPIs(flagged []FlaggedRecord, caps Capabilities) KPISummary {
	summary := KPISummary{
		Total:     len(flagged),
		TopReject: NoReject,
	}
	for _, rec := range flagged {
		if rec.Anomaly {
			summary.Anomalies++
		}
	}
	if summary.Total > 0 {
		summary.PctAnomalies = float64(summary.Anomalies) / float64(summary.Total) * 100
	}
	if caps.HasRejectType {
		if mode, ok := rejectMode(flagged); ok {
			summary.TopReject = mode
		}
	}
	return summary
}

// rejectMode returns the most frequent non-null reject type; ties go to the value seen first.
func rejectMode(flagged []FlaggedRecord) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, rec := range flagged {
		if !rec.HasRejectType() {
			continue
		}
		if counts[rec.RejectType] == 0 {
			order = append(order, rec.RejectType)
		}
		counts[rec.RejectType]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

// DistinctPartIDs lists part identifiers in first-seen order.
func DistinctPartIDs(table ResultsTable) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, rec := range table.Records {
		if !seen[rec.PartID] {
			seen[rec.PartID] = true
			ids = append(ids, rec.PartID)
		}
	}
	return ids
}

// DistinctRejectTypes lists non-null reject types in first-seen order.
func DistinctRejectTypes(table ResultsTable) []string {
	if !table.Capabilities.HasRejectType {
		return nil
	}
	seen := make(map[string]bool)
	types := make([]string, 0)
	for _, rec := range table.Records {
		if rec.HasRejectType() && !seen[rec.RejectType] {
			seen[rec.RejectType] = true
			types = append(types, rec.RejectType)
		}
	}
	return types
}

// TimeBounds returns the earliest and latest non-null timestamps.
func TimeBounds(table ResultsTable) (*TimeRange, bool) {
	if !table.Capabilities.HasTimestamp {
		return nil, false
	}
	stamps := make([]time.Time, 0, len(table.Records))
	for _, rec := range table.Records {
		if rec.HasTimestamp() {
			stamps = append(stamps, rec.Timestamp)
		}
	}
	if len(stamps) == 0 {
		return nil, false
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	return &TimeRange{From: stamps[0], To: stamps[len(stamps)-1]}, true
}
