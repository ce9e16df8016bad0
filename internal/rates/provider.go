package rates

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	apperrors "cruisepulse/internal/errors"
)

// Provider supplies the rate table for a pipeline run
type Provider interface {
	Rates(ctx context.Context) (*Table, error)
}

// FileProvider loads the rate file once and serves the same table afterwards.
// A failed load is also remembered, so a process started without a rate file
// stays in degraded mode until restarted.
type FileProvider struct {
	path   string
	logger *slog.Logger

	once  sync.Once
	table *Table
	err   error
}

// NewFileProvider creates a provider for the rate file at path
func NewFileProvider(path string, logger *slog.Logger) *FileProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProvider{
		path:   path,
		logger: logger.With("component", "rates_provider"),
	}
}

// Rates returns the table, loading it on first use
func (p *FileProvider) Rates(ctx context.Context) (*Table, error) {
	p.once.Do(func() {
		p.table, p.err = LoadFile(p.path)
		if p.err != nil {
			p.logger.WarnContext(ctx, "Exchange rates unavailable",
				slog.String("path", p.path),
				slog.String("error", p.err.Error()))
			return
		}
		latest, _ := p.table.Latest()
		p.logger.InfoContext(ctx, "Exchange rates loaded",
			slog.String("path", p.path),
			slog.Int("entries", p.table.Len()),
			slog.Time("latest", latest.Date))
	})
	return p.table, p.err
}

// StaticProvider serves a fixed table, or a fixed error
type StaticProvider struct {
	Table *Table
	Err   error
}

// Rates returns the configured table and error
func (p StaticProvider) Rates(context.Context) (*Table, error) {
	return p.Table, p.Err
}

// ReloadingProvider re-reads the rate file whenever its modification time
// changes, so a long-running server picks up the updater's writes. Between
// changes the cached table is served.
type ReloadingProvider struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	modTime time.Time
	table   *Table
}

// NewReloadingProvider creates a reloading provider for the rate file at path
func NewReloadingProvider(path string, logger *slog.Logger) *ReloadingProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadingProvider{
		path:   path,
		logger: logger.With("component", "rates_provider"),
	}
}

// Rates returns the current table. Once a table has loaded it keeps being
// served while the file is missing or unreadable; before that such failures are
// reported on every call.
func (p *ReloadingProvider) Rates(ctx context.Context) (*Table, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			err = apperrors.NewRatesError("rate file not found: "+p.path, err)
		} else {
			err = apperrors.NewRatesError("failed to stat rate file", err)
		}
		return p.cachedOr(ctx, err)
	}

	if p.table != nil && info.ModTime().Equal(p.modTime) {
		return p.table, nil
	}

	table, err := LoadFile(p.path)
	if err != nil {
		return p.cachedOr(ctx, err)
	}
	p.table, p.modTime = table, info.ModTime()

	latest, _ := table.Latest()
	p.logger.InfoContext(ctx, "Exchange rates loaded",
		slog.String("path", p.path),
		slog.Int("entries", table.Len()),
		slog.Time("latest", latest.Date))
	return table, nil
}

// cachedOr returns the last loaded table, or err when nothing has loaded yet
func (p *ReloadingProvider) cachedOr(ctx context.Context, err error) (*Table, error) {
	if p.table != nil {
		p.logger.WarnContext(ctx, "Rate file unavailable, serving previously loaded rates",
			slog.String("path", p.path),
			slog.Time("loaded_mod_time", p.modTime),
			slog.String("error", err.Error()))
		return p.table, nil
	}
	p.logger.WarnContext(ctx, "Exchange rates unavailable",
		slog.String("path", p.path),
		slog.String("error", err.Error()))
	return nil, err
}
