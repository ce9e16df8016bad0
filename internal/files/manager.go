package files

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"cruisepulse/internal/config"
	"cruisepulse/internal/infrastructure"
)

// Retention bounds the results directory. A zero field disables that limit.
type Retention struct {
	MaxAge   time.Duration
	MaxFiles int
}

// RetentionFromConfig maps the retention config section
func RetentionFromConfig(cfg config.RetentionConfig) Retention {
	return Retention{MaxAge: cfg.MaxAge, MaxFiles: cfg.MaxFiles}
}

// PruneResult reports one sweep
type PruneResult struct {
	Kept    int
	Removed int
}

// Manager removes expired result files
type Manager struct {
	discovery *Discovery
	policy    Retention
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a manager for the results directory in paths
func NewManager(paths *config.Paths, policy Retention, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		discovery: NewDiscovery(paths.ResultsDir),
		policy:    policy,
		logger:    infrastructure.WithComponent(logger, "results_retention"),
		now:       time.Now,
	}
}

// Discovery returns the lister used by the manager
func (m *Manager) Discovery() *Discovery {
	return m.discovery
}

// Prune deletes results older than MaxAge and then the oldest files beyond
// MaxFiles. Files that vanish mid-sweep are not errors.
func (m *Manager) Prune(ctx context.Context) (PruneResult, error) {
	files, err := m.discovery.FindResults()
	if err != nil {
		return PruneResult{}, err
	}

	expired := make(map[string]bool)
	if m.policy.MaxAge > 0 {
		for _, f := range FilterOlderThan(files, m.now().Add(-m.policy.MaxAge)) {
			expired[f.Path] = true
		}
	}
	if m.policy.MaxFiles > 0 && len(files) > m.policy.MaxFiles {
		// newest first, so the tail is the overflow
		for _, f := range files[m.policy.MaxFiles:] {
			expired[f.Path] = true
		}
	}

	var errs []error
	res := PruneResult{}
	for _, f := range files {
		if !expired[f.Path] {
			res.Kept++
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			res.Kept++
			continue
		}
		res.Removed++
	}

	if res.Removed > 0 {
		m.logger.InfoContext(ctx, "Pruned result files",
			slog.Int("removed", res.Removed),
			slog.Int("kept", res.Kept))
	}
	return res, errors.Join(errs...)
}

// Run prunes immediately and then every interval until ctx is done. A
// non-positive interval prunes once.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	m.sweep(ctx)
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	if _, err := m.Prune(ctx); err != nil {
		m.logger.WarnContext(ctx, "Result pruning failed", slog.String("error", err.Error()))
	}
}
