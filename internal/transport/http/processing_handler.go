package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"cruisepulse/internal/config"
	apierrors "cruisepulse/internal/errors"
	"cruisepulse/internal/operations"
	"cruisepulse/internal/services"
	"cruisepulse/pkg/contracts/domain"
)

// UploadField is the multipart field carrying the booking export
const UploadField = "file"

// UploadResponse is returned after a successful run
type UploadResponse struct {
	Status      string                  `json:"status"`
	RunID       string                  `json:"run_id"`
	ResultFile  string                  `json:"result_file"`
	DownloadURL string                  `json:"download_url"`
	Rows        int                     `json:"rows"`
	Stats       *domain.ProcessingStats `json:"stats"`
	Steps       []*operations.StepState `json:"steps"`
	Published   bool                    `json:"published"`
	DurationMS  int64                   `json:"duration_ms"`
}

// ProcessingHandler handles uploads and result downloads
type ProcessingHandler struct {
	service      ProcessingServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	timeout      time.Duration
	now          func() time.Time
}

// NewProcessingHandler creates a new processing handler. A zero timeout leaves
// runs bounded only by the request context.
func NewProcessingHandler(service ProcessingServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, timeout time.Duration) *ProcessingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "processing")),
		errorHandler: errorHandler,
		timeout:      timeout,
		now:          time.Now,
	}
}

// Routes returns the processing routes
func (h *ProcessingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Get("/download/{filename}", h.Download)
	return r
}

// Upload handles POST /api/upload
func (h *ProcessingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		h.handleFormError(w, r, err)
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.service.ProcessUpload(ctx, header.Filename, file)
	if err != nil {
		h.handleProcessingError(w, r, err)
		return
	}

	render.JSON(w, r, UploadResponse{
		Status:      "success",
		RunID:       result.RunID,
		ResultFile:  result.ResultFile,
		DownloadURL: "/api/download/" + result.ResultFile,
		Rows:        result.Rows,
		Stats:       result.Stats,
		Steps:       result.Steps,
		Published:   result.Published,
		DurationMS:  result.Duration.Milliseconds(),
	})
}

func (h *ProcessingHandler) handleFormError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		h.errorHandler.HandleError(w, r, apierrors.PayloadTooLarge(maxErr.Limit))
	case strings.Contains(err.Error(), "request body too large"):
		h.errorHandler.HandleError(w, r, apierrors.PayloadTooLarge(0))
	case errors.Is(err, http.ErrMissingFile):
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
	default:
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequest(err.Error()))
	}
}

// handleProcessingError maps service and pipeline failures onto API errors
func (h *ProcessingHandler) handleProcessingError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apierrors.AppError
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		h.errorHandler.HandleError(w, r, apierrors.ErrRunInProgress)
	case errors.Is(err, services.ErrMissingFile):
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
	case errors.Is(err, services.ErrInvalidFileType):
		h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedFile)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.errorHandler.HandleError(w, r, err)
	case errors.As(err, &appErr):
		h.errorHandler.HandleError(w, r, err)
	default:
		h.errorHandler.HandleError(w, r, apierrors.ProcessingFailed(err))
	}
}

// Download handles GET /api/download/{filename}. The attachment is renamed to a
// timestamped analytics file name.
func (h *ProcessingHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.service.ResultPath(filename)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidFileName):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filename", "Invalid result file name"))
		case errors.Is(err, services.ErrFileNotFound):
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("Result file"))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	h.logger.InfoContext(r.Context(), "downloading result",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("filename", filename),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName(h.now())))
	http.ServeFile(w, r, path)
}

// DownloadName is the attachment name offered for a result file
func DownloadName(t time.Time) string {
	return config.DownloadFilePrefix + t.Format("20060102_150405") + ".csv"
}
