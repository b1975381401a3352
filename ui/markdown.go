package ui

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// defaultOverview is shown when no overview file is configured.
const defaultOverview = `## Project Overview

This dashboard visualises PCA insights from a realtime automated filling line.
It supports **variability analysis**, **anomaly detection** and continuous improvement.

* **Data Explorer** lists the cleaned process dataset.
* **PCA Insights** flags parts whose Hotelling T² or Q (SPE) statistic exceeds its control limit.
  A part exactly at a limit is in control.
`

// renderMarkdown converts trusted markdown (from configuration) to HTML.
func renderMarkdown(src []byte) template.HTML {
	if len(src) == 0 {
		src = []byte(defaultOverview)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return template.HTML(markdown.ToHTML(src, p, renderer))
}
