package insights

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day int) time.Time {
	return time.Date(2024, 3, day, 8, 0, 0, 0, time.UTC)
}

func fixtureTable() ResultsTable {
	return ResultsTable{
		Capabilities: Capabilities{HasRejectType: true, HasTimestamp: true},
		Records: []PartRecord{
			{PartID: "A", T2: 4, Q: 1, RejectType: "X", Timestamp: ts(1)},
			{PartID: "A", T2: 12, Q: 1, RejectType: "Y", Timestamp: ts(2)},
			{PartID: "B", T2: 3, Q: 9, RejectType: "X", Timestamp: ts(3)},
			{PartID: "B", T2: 2, Q: 2, RejectType: "", Timestamp: ts(4)},
			{PartID: "C", T2: 10, Q: 5, RejectType: "Y", Timestamp: time.Time{}},
		},
	}
}

func partIDs(t ResultsTable) []string {
	ids := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		ids = append(ids, r.PartID)
	}
	return ids
}

func TestApplyFilters_NoCriteriaKeepsEverything(t *testing.T) {
	table := fixtureTable()
	out := ApplyFilters(table, Criteria{})

	assert.Equal(t, table.Records, out.Records)
	assert.Equal(t, table.Capabilities, out.Capabilities)
}

func TestApplyFilters_Conjunctive(t *testing.T) {
	out := ApplyFilters(fixtureTable(), Criteria{
		PartIDs:     []string{"A"},
		RejectTypes: []string{"X"},
	})

	require.Len(t, out.Records, 1)
	assert.Equal(t, "A", out.Records[0].PartID)
	assert.Equal(t, "X", out.Records[0].RejectType)
}

func TestApplyFilters_EmptySelectionKeepsNothing(t *testing.T) {
	out := ApplyFilters(fixtureTable(), Criteria{PartIDs: []string{}})
	assert.Empty(t, out.Records)
	assert.NotNil(t, out.Records)
}

func TestApplyFilters_RejectCriterionExcludesNullLabels(t *testing.T) {
	out := ApplyFilters(fixtureTable(), Criteria{RejectTypes: []string{"X", "Y"}})
	assert.Equal(t, []string{"A", "A", "B", "C"}, partIDs(out))
}

func TestApplyFilters_TimeRangeInclusive(t *testing.T) {
	out := ApplyFilters(fixtureTable(), Criteria{
		TimeRange: &TimeRange{From: ts(2), To: ts(3)},
	})
	require.Len(t, out.Records, 2)
	assert.Equal(t, ts(2), out.Records[0].Timestamp)
	assert.Equal(t, ts(3), out.Records[1].Timestamp)
}

func TestApplyFilters_TimeRangeSkipsNullTimestamps(t *testing.T) {
	out := ApplyFilters(fixtureTable(), Criteria{
		TimeRange: &TimeRange{From: ts(1), To: ts(30)},
	})
	assert.Equal(t, []string{"A", "A", "B", "B"}, partIDs(out))
}

func TestApplyFilters_IgnoresCriteriaForAbsentColumns(t *testing.T) {
	table := fixtureTable()
	table.Capabilities = Capabilities{}

	out := ApplyFilters(table, Criteria{
		RejectTypes: []string{"nothing-matches"},
		TimeRange:   &TimeRange{From: ts(20), To: ts(21)},
	})
	assert.Len(t, out.Records, len(table.Records))
}

func TestApplyFilters_Idempotent(t *testing.T) {
	criteria := Criteria{
		PartIDs:     []string{"A", "B"},
		RejectTypes: []string{"X"},
		TimeRange:   &TimeRange{From: ts(1), To: ts(3)},
	}
	once := ApplyFilters(fixtureTable(), criteria)
	twice := ApplyFilters(once, criteria)

	assert.Equal(t, once, twice)
}

func TestApplyFilters_DoesNotAliasInput(t *testing.T) {
	table := fixtureTable()
	out := ApplyFilters(table, Criteria{})
	out.Records[0].PartID = "mutated"

	assert.Equal(t, "A", table.Records[0].PartID)
}

func TestComputeFlags_ExampleScenario(t *testing.T) {
	table := ResultsTable{Records: []PartRecord{
		{PartID: "1", T2: 5, Q: 1},
		{PartID: "2", T2: 15, Q: 1},
	}}
	flagged := ComputeFlags(table, Limits{T2Limit: 10, QLimit: 5})

	require.Len(t, flagged, 2)
	assert.False(t, flagged[0].Anomaly)
	assert.True(t, flagged[1].Anomaly)
	assert.True(t, flagged[1].T2Flag)
	assert.False(t, flagged[1].QFlag)

	kpis := ComputeKPIs(flagged, table.Capabilities)
	assert.Equal(t, 2, kpis.Total)
	assert.Equal(t, 1, kpis.Anomalies)
	assert.Equal(t, 50.0, kpis.PctAnomalies)
	assert.Equal(t, NoReject, kpis.TopReject)
}

func TestComputeFlags_BoundaryIsInControl(t *testing.T) {
	limits := Limits{T2Limit: 10, QLimit: 5}
	table := ResultsTable{Records: []PartRecord{
		{PartID: "edge", T2: 10, Q: 5},
		{PartID: "below-q", T2: 10, Q: 4.999},
		{PartID: "q-over", T2: 1, Q: 5.0001},
	}}
	flagged := ComputeFlags(table, limits)

	assert.False(t, flagged[0].Anomaly)
	assert.False(t, flagged[1].Anomaly)
	assert.True(t, flagged[2].Anomaly)
	assert.True(t, flagged[2].QFlag)

	for _, rec := range flagged {
		assert.Equal(t, rec.T2 > limits.T2Limit || rec.Q > limits.QLimit, rec.Anomaly, rec.PartID)
	}
}

func TestComputeKPIs_EmptyView(t *testing.T) {
	kpis := ComputeKPIs(nil, Capabilities{HasRejectType: true})

	assert.Equal(t, 0, kpis.Total)
	assert.Equal(t, 0, kpis.Anomalies)
	assert.Equal(t, 0.0, kpis.PctAnomalies)
	assert.Equal(t, NoReject, kpis.TopReject)
}

func TestComputeKPIs_AllNullRejectType(t *testing.T) {
	table := ResultsTable{
		Capabilities: Capabilities{HasRejectType: true},
		Records: []PartRecord{
			{PartID: "1", T2: 1, Q: 1},
			{PartID: "2", T2: 1, Q: 1},
		},
	}
	kpis := ComputeKPIs(ComputeFlags(table, Limits{T2Limit: 5, QLimit: 5}), table.Capabilities)
	assert.Equal(t, NoReject, kpis.TopReject)
}

func TestComputeKPIs_TopRejectTieGoesToFirstSeen(t *testing.T) {
	table := ResultsTable{
		Capabilities: Capabilities{HasRejectType: true},
		Records: []PartRecord{
			{PartID: "1", RejectType: "Underfill"},
			{PartID: "2", RejectType: "Cap"},
			{PartID: "3", RejectType: "Cap"},
			{PartID: "4", RejectType: "Underfill"},
			{PartID: "5"},
		},
	}
	kpis := ComputeKPIs(ComputeFlags(table, Limits{}), table.Capabilities)
	assert.Equal(t, "Underfill", kpis.TopReject)

	table.Records = append(table.Records, PartRecord{PartID: "6", RejectType: "Cap"})
	kpis = ComputeKPIs(ComputeFlags(table, Limits{}), table.Capabilities)
	assert.Equal(t, "Cap", kpis.TopReject)
}

func TestComputeKPIs_PercentageInRange(t *testing.T) {
	table := fixtureTable()
	for _, limits := range []Limits{{T2Limit: -1, QLimit: -1}, {T2Limit: 100, QLimit: 100}, {T2Limit: 5, QLimit: 5}} {
		kpis := ComputeKPIs(ComputeFlags(table, limits), table.Capabilities)
		assert.GreaterOrEqual(t, kpis.PctAnomalies, 0.0)
		assert.LessOrEqual(t, kpis.PctAnomalies, 100.0)
	}
}

func TestDistinctValuesAndBounds(t *testing.T) {
	table := fixtureTable()

	assert.Equal(t, []string{"A", "B", "C"}, DistinctPartIDs(table))
	assert.Equal(t, []string{"X", "Y"}, DistinctRejectTypes(table))

	bounds, ok := TimeBounds(table)
	require.True(t, ok)
	assert.Equal(t, ts(1), bounds.From)
	assert.Equal(t, ts(4), bounds.To)

	table.Capabilities = Capabilities{}
	assert.Nil(t, DistinctRejectTypes(table))
	_, ok = TimeBounds(table)
	assert.False(t, ok)
}

func TestLimitsValidate(t *testing.T) {
	assert.NoError(t, Limits{T2Limit: 9.2, QLimit: 3.1}.Validate())
	assert.ErrorIs(t, Limits{T2Limit: math.NaN(), QLimit: 1}.Validate(), ErrInvalidLimits)
}
