package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"cruisepulse/internal/config"
	"cruisepulse/internal/dataprocessing"
	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/exporter"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/operations"
	"cruisepulse/pkg/contracts/domain"
)

// ProcessResult summarizes one processed file
type ProcessResult struct {
	RunID      string                  `json:"run_id"`
	ResultFile string                  `json:"result_file"`
	Rows       int                     `json:"rows"`
	Stats      *domain.ProcessingStats `json:"stats"`
	Steps      []*operations.StepState `json:"steps"`
	Published  bool                    `json:"published"`
	Duration   time.Duration           `json:"duration"`
}

// ProcessingService turns an uploaded export into a result file: parse, run
// the pipeline, write the CSV and optionally publish it.
type ProcessingService struct {
	pipeline  *operations.Pipeline
	writer    *exporter.CSVWriter
	publisher exporter.Publisher
	paths     *config.Paths
	logger    *slog.Logger

	// one run at a time
	runMu sync.Mutex
}

// NewProcessingService creates the service. publisher may be nil.
func NewProcessingService(pipeline *operations.Pipeline, writer *exporter.CSVWriter, publisher exporter.Publisher, paths *config.Paths, logger *slog.Logger) *ProcessingService {
	return &ProcessingService{
		pipeline:  pipeline,
		writer:    writer,
		publisher: publisher,
		paths:     paths,
		logger:    infrastructure.WithComponent(logger, "processing_service"),
	}
}

// ProcessFile processes an input file from disk
func (s *ProcessingService) ProcessFile(ctx context.Context, path string) (*ProcessResult, error) {
	start := time.Now()
	logger := infrastructure.ContextLogger(s.logger, ctx)

	table, err := dataprocessing.ParseFile(path)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read input file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, table)
	if err != nil {
		return nil, err
	}

	name, err := s.writer.WriteResult(ctx, result.Columns, result.Rows())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to write result file",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()))
		return nil, err
	}

	published := s.publish(ctx, result)

	logger.InfoContext(ctx, "File processed",
		slog.String("input", filepath.Base(path)),
		slog.String("result_file", name),
		slog.Int("rows", result.Stats.FinalRows),
		slog.Bool("published", published))

	return &ProcessResult{
		RunID:      result.RunID,
		ResultFile: name,
		Rows:       result.Stats.FinalRows,
		Stats:      result.Stats,
		Steps:      result.Steps,
		Published:  published,
		Duration:   time.Since(start),
	}, nil
}

// publish mirrors the result to the configured publisher. Failures are logged
// and never fail the run.
func (s *ProcessingService) publish(ctx context.Context, result *operations.Result) bool {
	if s.publisher == nil {
		return false
	}
	if err := s.publisher.Publish(ctx, result.Columns, result.Records); err != nil {
		infrastructure.ContextLogger(s.logger, ctx).WarnContext(ctx, "Failed to publish result",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// ProcessUpload stores an uploaded file in the uploads directory, processes it
// and removes it again. Only one upload is processed at a time; a concurrent
// call fails with ErrRunInProgress.
func (s *ProcessingService) ProcessUpload(ctx context.Context, filename string, src io.Reader) (*ProcessResult, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return nil, ErrMissingFile
	}
	if !config.IsAllowedUpload(name) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, filepath.Ext(name))
	}

	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	path := s.paths.GetUploadPath(uuid.New().String() + "_" + name)
	if err := saveUpload(path, src); err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			infrastructure.ContextLogger(s.logger, ctx).WarnContext(ctx, "Failed to remove uploaded file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}()

	return s.ProcessFile(ctx, path)
}

func saveUpload(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create uploads directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to store upload", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return apperrors.NewStorageError("failed to store upload", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return apperrors.NewStorageError("failed to store upload", err)
	}
	return nil
}

// ResultPath returns the path of a result file for download
func (s *ProcessingService) ResultPath(name string) (string, error) {
	if !config.IsResultFile(name) {
		return "", ErrInvalidFileName
	}
	path := s.paths.GetResultPath(name)
	if !config.FileExists(path) {
		return "", ErrFileNotFound
	}
	return path, nil
}
