package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cruisepulse/internal/config"
	apperrors "cruisepulse/internal/errors"
)

// FileValidator checks command line inputs and outputs before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is a readable, non-empty export with an
// accepted extension. Office lock files (~$name.xlsx) are rejected.
func (v *FileValidator) ValidateInputFile(path string) error {
	base := filepath.Base(path)

	if !config.IsAllowedUpload(base) {
		v.logger.Error("Unsupported input file",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(base)))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("unsupported input file %s, expected one of %s", base, strings.Join(config.AllowedUploadExtensions, ", "))).
			WithContext("file", base)
	}
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Input is an Office lock file", slog.String("file", path))
		return apperrors.NewAppValidationError("file " + base + " is a temporary Office lock file").
			WithContext("file", base)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError("input file " + path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat file "+path, err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(path + " is a directory, not a file")
	}
	if info.Size() == 0 {
		return apperrors.NewAppValidationError("input file " + base + " is empty").WithContext("file", base)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("file "+path+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir if needed and verifies it is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory "+dir, err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
