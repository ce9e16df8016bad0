package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/files"
)

const defaultResultsLimit = 20

// ResultEntry is one row of GET /api/results
type ResultEntry struct {
	files.FileInfo
	DownloadURL string `json:"download_url"`
}

// ResultsHandler lists recent result files
type ResultsHandler struct {
	lister       ResultListerInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(lister ResultListerInterface, logger *slog.Logger, errHandler *apperrors.ErrorHandler) *ResultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{
		lister:       lister,
		logger:       logger.With(slog.String("handler", "results")),
		errorHandler: errHandler,
	}
}

// List handles GET /api/results?limit=N, newest first
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorHandler.HandleError(w, r, apperrors.ErrValidation("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	found, err := h.lister.FindResults()
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewStorageError("failed to list results", err))
		return
	}
	if len(found) > limit {
		found = found[:limit]
	}

	entries := make([]ResultEntry, 0, len(found))
	for _, f := range found {
		entries = append(entries, ResultEntry{FileInfo: f, DownloadURL: "/api/download/" + f.Name})
	}

	render.JSON(w, r, map[string]interface{}{
		"results": entries,
		"count":   len(entries),
	})
}
