package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the resolved application paths
type Paths struct {
	BaseDir         string
	DataDir         string
	UploadsDir      string
	ResultsDir      string
	LogsDir         string
	RatesFile       string
	CredentialsFile string
}

// NewPaths resolves the configured paths. Relative entries are joined onto
// BaseDir; an empty BaseDir is the directory holding the running executable.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", cfg.BaseDir, err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:         base,
		DataDir:         resolve(cfg.DataDir),
		UploadsDir:      resolve(cfg.UploadsDir),
		ResultsDir:      resolve(cfg.ResultsDir),
		LogsDir:         resolve(cfg.LogsDir),
		RatesFile:       resolve(cfg.RatesFile),
		CredentialsFile: resolve(cfg.CredentialsFile),
	}, nil
}

// executableDir returns the directory of the running executable with symlinks resolved
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.UploadsDir,
		p.ResultsDir,
		p.LogsDir,
		filepath.Dir(p.RatesFile),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetUploadPath returns the full path for an uploaded file
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filename)
}

// GetResultPath returns the full path for a processed output file
func (p *Paths) GetResultPath(filename string) string {
	return filepath.Join(p.ResultsDir, filename)
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// IsResultFile reports whether name is a plain CSV file name that can live in the
// results directory; anything with a path separator is rejected.
func IsResultFile(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

// IsAllowedUpload reports whether the file name has an accepted input extension
func IsAllowedUpload(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedUploadExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("uploads", p.UploadsDir),
			slog.String("results", p.ResultsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("rates", p.RatesFile),
			slog.String("credentials", p.CredentialsFile),
		))
}
