package exporter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cruisepulse/internal/config"
	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/infrastructure"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxResultNameAttempts bounds the numbered variants tried when runs finish
// within the same second
const maxResultNameAttempts = 100

// CSVWriter writes result files into the results directory
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
	now    func() time.Time
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{
		paths:  paths,
		logger: infrastructure.WithComponent(logger, "csv_writer"),
		now:    time.Now,
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// ResultFileName returns the name of a result file written at t
func ResultFileName(t time.Time) string {
	return config.ResultFilePrefix + t.Format(config.ResultTimestampLayout) + ".csv"
}

// resultNameCandidates returns the timestamped name followed by numbered
// variants, processed_20240310_150405_2.csv and so on.
func resultNameCandidates(base string) []string {
	stem := strings.TrimSuffix(base, ".csv")
	names := make([]string, 0, maxResultNameAttempts)
	names = append(names, base)
	for i := 2; i <= maxResultNameAttempts; i++ {
		names = append(names, fmt.Sprintf("%s_%d.csv", stem, i))
	}
	return names
}

// WriteResult writes a processed table to a new timestamped file in the results
// directory and returns the file name. An existing result is never replaced: a
// run finishing in the same second gets a numbered name.
func (w *CSVWriter) WriteResult(ctx context.Context, headers []string, records [][]string) (string, error) {
	names := resultNameCandidates(ResultFileName(w.now()))
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = w.paths.GetResultPath(name)
	}

	infrastructure.ContextLogger(w.logger, ctx).InfoContext(ctx, "Writing result file",
		slog.String("file_path", paths[0]),
		slog.Int("record_count", len(records)))

	stream, err := CreateStreamWriter(paths[0], headers, true)
	if err != nil {
		return "", err
	}
	if err := writeRecords(ctx, stream, records); err != nil {
		return "", err
	}

	path, err := stream.Commit(paths...)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

// WriteCSV writes a complete file. The data goes to a temporary file in the
// target directory which replaces filePath only once everything is written.
func (w *CSVWriter) WriteCSV(ctx context.Context, filePath string, options WriteOptions) error {
	infrastructure.ContextLogger(w.logger, ctx).InfoContext(ctx, "Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	stream, err := CreateStreamWriter(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}
	if err := writeRecords(ctx, stream, options.Records); err != nil {
		return err
	}
	return stream.Close()
}

// writeRecords streams records, aborting the stream on cancellation or failure
func writeRecords(ctx context.Context, stream *StreamWriter, records [][]string) error {
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			stream.Abort()
			return err
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Abort()
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}
	return nil
}

// Encode writes headers and records as CSV to dst
func Encode(dst io.Writer, headers []string, records [][]string, bom bool) error {
	if bom {
		if _, err := dst.Write(utf8BOM); err != nil {
			return err
		}
	}

	writer := csv.NewWriter(dst)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return err
		}
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// StreamWriter writes a CSV file record by record. Nothing is visible at the
// target path until Close succeeds.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	target string
}

// CreateStreamWriter creates a new streaming CSV writer for filePath
func CreateStreamWriter(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create directory", err)
	}

	file, err := os.CreateTemp(dir, ".tmp-*.csv")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create file", err)
	}

	s := &StreamWriter{file: file, writer: csv.NewWriter(file), target: filePath}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, apperrors.NewStorageError("failed to write BOM", err)
		}
	}
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, apperrors.NewStorageError("failed to write headers", err)
		}
	}

	return s, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the stream and moves it to its target path, replacing any
// file already there
func (s *StreamWriter) Close() error {
	if err := s.finish(); err != nil {
		return err
	}
	if err := os.Rename(s.file.Name(), s.target); err != nil {
		os.Remove(s.file.Name())
		return apperrors.NewStorageError("failed to move file into place", err)
	}
	return nil
}

// Commit flushes the stream and links it under the first of paths that does
// not exist yet. Existing files are left untouched. Returns the path used.
func (s *StreamWriter) Commit(paths ...string) (string, error) {
	if err := s.finish(); err != nil {
		return "", err
	}
	defer os.Remove(s.file.Name())

	for _, path := range paths {
		err := os.Link(s.file.Name(), path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", apperrors.NewStorageError("failed to move file into place", err)
		}
	}
	return "", apperrors.NewStorageError(
		fmt.Sprintf("no free result name after %d attempts", len(paths)), fs.ErrExist)
}

func (s *StreamWriter) finish() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return apperrors.NewStorageError("failed to flush CSV", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return apperrors.NewStorageError("failed to close file", err)
	}
	return nil
}

// Abort discards everything written so far
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.file.Name())
}
