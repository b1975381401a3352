package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcadash/app"
	"pcadash/domain/insights"
	"pcadash/domain/tabular"
	"pcadash/internal/metrics"
	"pcadash/internal/session"
)

func testRecords() insights.ResultsTable {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	return insights.ResultsTable{
		Capabilities: insights.Capabilities{HasRejectType: true, HasTimestamp: true},
		Records: []insights.PartRecord{
			{PartID: "A", T2: 5, Q: 1, RejectType: "Cap", Timestamp: day(1)},
			{PartID: "A", T2: 15, Q: 1, RejectType: "Underfill", Timestamp: day(2)},
			{PartID: "B", T2: 2, Q: 8, RejectType: "Underfill", Timestamp: day(3)},
			{PartID: "C", T2: 10, Q: 5, Timestamp: day(4)},
		},
	}
}

func newTestApp(t *testing.T, processed tabular.Table) *App {
	t.Helper()
	s, err := session.New(testRecords(), insights.Limits{T2Limit: 10, QLimit: 5}, processed)
	require.NoError(t, err)
	recorder := metrics.NewRecorder()
	a, err := NewApp(app.NewInsightsService(s, recorder, nil), recorder, nil)
	require.NoError(t, err)
	return a
}

func get(t *testing.T, a *App, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestOverview(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Project Overview</h2>")
	assert.Contains(t, body, "anomaly detection")
	assert.Contains(t, body, "</html>")
}

func TestExplorer(t *testing.T) {
	processed, err := tabular.NewTable([]string{"Part_ID", "Fill_Volume"}, [][]string{{"1", "500"}, {"2", ""}, {"3", "498"}})
	require.NoError(t, err)
	a := newTestApp(t, processed)

	rec := get(t, a, "/explorer")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<th>Fill_Volume</th>")
	assert.Contains(t, body, "Showing 3 of 3 rows")
	assert.Contains(t, body, "1 missing")
	assert.Contains(t, body, `<table class="stats" id="profile">`)
	assert.Contains(t, body, "<td>499.000</td>")

	rec = get(t, a, "/explorer?limit=2")
	assert.Contains(t, rec.Body.String(), "Showing 2 of 3 rows")

	rec = get(t, a, "/explorer?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplorer_NoProcessedDataset(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/explorer")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed dataset is not available")
}

func TestInsights_Unfiltered(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/insights")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// C has no reject type, so the default reject selection leaves it out
	assert.Equal(t, 2, strings.Count(body, `class="anomaly"`))
	assert.Contains(t, body, `<span class="value">66.67%</span>`)
	assert.Contains(t, body, `<span class="value">Underfill</span>`)
	assert.Equal(t, 1, strings.Count(body, `<table class="data" id="filtered">`))
	assert.Contains(t, body, `name="reject_type"`)
	assert.Contains(t, body, `value="2024-03-01T00:00:00"`)
	assert.Contains(t, body, `<option value="Cap" selected>`)
}

func TestInsights_Filtered(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/insights?part_id=B&part_id=C")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, `class="anomaly"`))
	assert.Contains(t, body, `<option value="B" selected>`)
	assert.Contains(t, body, `<option value="A" >`)
	assert.Contains(t, body, "export.xlsx?part_id=B&amp;part_id=C")
}

func TestInsights_NoMatches(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/insights?part_id=Z")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No parts match the current filters.")
	assert.Contains(t, body, `<span class="value">N/A</span>`)
	assert.Contains(t, body, `<span class="value">0.00%</span>`)
}

func TestInsights_BadTimestamp(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/insights?from=yesterday")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid from")
}

func TestInsightsJSON(t *testing.T) {
	a := newTestApp(t, tabular.Table{})

	rec := get(t, a, "/api/insights?reject_type=Underfill")
	require.Equal(t, http.StatusOK, rec.Code)
	var view app.InsightsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)
	assert.Equal(t, 2, view.KPIs.Anomalies)
	assert.Equal(t, 100.0, view.KPIs.PctAnomalies)

	rec = get(t, a, "/api/insights?to=never")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "INVALID_INPUT", problem["code"])
	assert.Equal(t, "/api/insights", problem["instance"])
}

func TestOptionsJSON(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/api/options")

	require.Equal(t, http.StatusOK, rec.Code)
	var opts app.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"A", "B", "C"}, opts.PartIDs)
	assert.True(t, opts.Capabilities.HasTimestamp)
}

func TestInsightsExport(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/insights/export.xlsx?part_id=A")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pca_insights_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("PCA Insights")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t, tabular.Table{})

	rec := get(t, a, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	get(t, a, "/insights")
	rec = get(t, a, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pcadash_insight_views_total{surface="dashboard"} 1`)
}

func TestStaticAssets(t *testing.T) {
	rec := get(t, newTestApp(t, tabular.Table{}), "/static/dashboard.css")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tr.anomaly")
}

var (
	selectPattern   = regexp.MustCompile(`(?s)<select id="([a-z_]+)".*?</select>`)
	selectedPattern = regexp.MustCompile(`<option value="([^"]*)" selected>`)
	inputPattern    = regexp.MustCompile(`<input id="(from|to)"[^>]*value="([^"]*)"`)
)

// formDefaults reads back the query a browser would submit for the rendered filter form.
func formDefaults(t *testing.T, body string) url.Values {
	t.Helper()
	q := url.Values{}
	for _, sel := range selectPattern.FindAllStringSubmatch(body, -1) {
		for _, opt := range selectedPattern.FindAllStringSubmatch(sel[0], -1) {
			q.Add(sel[1], opt[1])
		}
	}
	for _, in := range inputPattern.FindAllStringSubmatch(body, -1) {
		q.Set(in[1], in[2])
	}
	require.NotEmpty(t, q.Get("from"))
	require.NotEmpty(t, q.Get("to"))
	return q
}

func TestInsights_SubmittingDefaultFormKeepsView(t *testing.T) {
	at := func(d, h, m, s int) time.Time { return time.Date(2024, 3, d, h, m, s, 0, time.UTC) }
	results := insights.ResultsTable{
		Capabilities: insights.Capabilities{HasRejectType: true, HasTimestamp: true},
		Records: []insights.PartRecord{
			{PartID: "A", T2: 1, Q: 1, RejectType: "Underfill", Timestamp: at(1, 8, 0, 0)},
			{PartID: "B", T2: 20, Q: 1, Timestamp: at(2, 9, 0, 0)},
			{PartID: "C", T2: 1, Q: 9, RejectType: "Cap", Timestamp: at(3, 9, 15, 40)},
			{PartID: "D", T2: 1, Q: 1, Timestamp: at(4, 10, 0, 30)},
		},
	}
	s, err := session.New(results, insights.Limits{T2Limit: 10, QLimit: 5}, tabular.Table{})
	require.NoError(t, err)
	a, err := NewApp(app.NewInsightsService(s, nil, nil), nil, nil)
	require.NoError(t, err)

	page := get(t, a, "/insights")
	require.Equal(t, http.StatusOK, page.Code)
	q := formDefaults(t, page.Body.String())
	assert.Equal(t, "2024-03-04T10:00:30", q.Get("to"))
	assert.Equal(t, []string{"Cap", "Underfill"}, q["reject_type"])

	view := func(target string) app.InsightsView {
		rec := get(t, a, target)
		require.Equal(t, http.StatusOK, rec.Code)
		var v app.InsightsView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		return v
	}
	initial := view("/api/insights")
	submitted := view("/api/insights?" + q.Encode())

	assert.Equal(t, initial.KPIs, submitted.KPIs)
	assert.Len(t, submitted.Rows, len(initial.Rows))
	assert.Equal(t, insights.KPISummary{Total: 2, Anomalies: 1, PctAnomalies: 50, TopReject: "Underfill"}, initial.KPIs)

	// a minute-precision end still covers the seconds within that minute
	q.Set("to", "2024-03-03T09:15")
	assert.Equal(t, 2, view("/api/insights?"+q.Encode()).KPIs.Total)
}
