// Package fragments provides template name constants for the dashboard pages
package fragments

import "strings"

// Page templates
const (
	OverviewPage = "overview.html"
	ExplorerPage = "explorer.html"
	InsightsPage = "insights.html"
	ErrorPage    = "error.html"
)

// Shared fragments, defined in fragments/*.html
const (
	Header      = "fragment/header"
	Footer      = "fragment/footer"
	KPICards    = "fragment/kpi_cards"
	FilterForm  = "fragment/filter_form"
	ResultTable = "fragment/result_table"
)

// GetAllTemplatePaths returns every template the dashboard must be able to execute
func GetAllTemplatePaths() []string {
	return []string{
		OverviewPage,
		ExplorerPage,
		InsightsPage,
		ErrorPage,

		Header,
		Footer,
		KPICards,
		FilterForm,
		ResultTable,
	}
}

// GetTemplateCategory returns the category for a given template name
func GetTemplateCategory(name string) string {
	switch {
	case strings.HasPrefix(name, "fragment/"):
		return "fragment"
	case strings.HasSuffix(name, ".html"):
		return "page"
	default:
		return "unknown"
	}
}
