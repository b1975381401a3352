package ui

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"pcadash/ui/templates/fragments"
)

// renderTemplate executes a template with the given data
func (a *App) renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data interface{}) {
	// Render to a buffer first so a failing template never sends half a page
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		a.logger.ErrorContext(r.Context(), "template error",
			slog.String("template", templateName),
			slog.String("category", fragments.GetTemplateCategory(templateName)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	if fragments.GetTemplateCategory(templateName) == "page" && !strings.Contains(buf.String(), "</html>") {
		a.logger.Warn("rendered page appears truncated", slog.String("template", templateName))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("error writing template response", slog.String("error", err.Error()))
	}
}

// checkTemplates verifies every page and fragment is defined
func (a *App) checkTemplates() []string {
	var missing []string
	for _, name := range fragments.GetAllTemplatePaths() {
		if a.templates.Lookup(name) == nil {
			missing = append(missing, name)
		}
	}
	return missing
}
