package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"cruisepulse/internal/rates"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type indexData struct {
	Rates       rates.Status
	MaxUploadMB int64
	Version     string
}

// ServeIndex serves the upload page with the current rate status
func ServeIndex(health HealthServiceInterface, maxUploadBytes int64, version string, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		data := indexData{
			Rates:       health.RatesStatus(r.Context()),
			MaxUploadMB: maxUploadBytes >> 20,
			Version:     version,
		}

		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, data); err != nil {
			logger.ErrorContext(r.Context(), "failed to render index", slog.String("error", err.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}
