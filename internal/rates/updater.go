package rates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cruisepulse/internal/infrastructure"
	"cruisepulse/pkg/contracts/domain"
)

// UpdateStatus is the outcome of an update
type UpdateStatus string

const (
	UpdateSuccess  UpdateStatus = "success"
	UpdateUpToDate UpdateStatus = "up_to_date"
	UpdatePartial  UpdateStatus = "partial"
	UpdateError    UpdateStatus = "error"
)

// UpdateResult summarizes an Update call
type UpdateResult struct {
	Status   UpdateStatus `json:"status"`
	Message  string       `json:"message"`
	Added    int          `json:"added"`
	Skipped  int          `json:"skipped"`
	LastDate time.Time    `json:"last_date"`
}

// Updater keeps the rate file current up to yesterday
type Updater struct {
	fetcher   DayFetcher
	path      string
	startDate time.Time
	now       func() time.Time
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// UpdaterOption configures an Updater
type UpdaterOption func(*Updater)

// WithClock overrides the time source
func WithClock(now func() time.Time) UpdaterOption {
	return func(u *Updater) { u.now = now }
}

// WithMetrics records fetch counts
func WithMetrics(m *infrastructure.PipelineMetrics) UpdaterOption {
	return func(u *Updater) { u.metrics = m }
}

// NewUpdater creates an updater writing to path. startDate is where a full
// download begins when the file does not exist.
func NewUpdater(fetcher DayFetcher, path string, startDate time.Time, logger *slog.Logger, opts ...UpdaterOption) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	u := &Updater{
		fetcher:   fetcher,
		path:      path,
		startDate: truncateDay(startDate),
		now:       time.Now,
		logger:    logger.With("component", "rates_updater"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update downloads the days missing from the rate file. A missing file triggers a
// full download from the start date. Days the bank has no data for (weekends,
// holidays) are skipped.
func (u *Updater) Update(ctx context.Context) (*UpdateResult, error) {
	yesterday := truncateDay(u.now()).AddDate(0, 0, -1)

	existing, err := LoadFile(u.path)
	if err != nil {
		if !isNotFound(err) {
			return &UpdateResult{Status: UpdateError, Message: err.Error()}, err
		}
		u.logger.WarnContext(ctx, "Rate file not found, downloading full history",
			slog.String("path", u.path),
			slog.Time("from", u.startDate))
		return u.download(ctx, nil, u.startDate, yesterday)
	}

	latest, ok := existing.Latest()
	if !ok {
		return u.download(ctx, existing, u.startDate, yesterday)
	}
	if !latest.Date.Before(yesterday) {
		return &UpdateResult{
			Status:   UpdateUpToDate,
			Message:  fmt.Sprintf("Курсы валют актуальны на %s", latest.Date.Format("02.01.2006")),
			LastDate: latest.Date,
		}, nil
	}

	return u.download(ctx, existing, latest.Date.AddDate(0, 0, 1), yesterday)
}

func (u *Updater) download(ctx context.Context, existing *Table, from, to time.Time) (*UpdateResult, error) {
	total := int(to.Sub(from).Hours()/24) + 1
	if total < 0 {
		total = 0
	}
	u.logger.InfoContext(ctx, "Downloading exchange rates",
		slog.String("from", from.Format("2006-01-02")),
		slog.String("to", to.Format("2006-01-02")),
		slog.Int("days", total))

	var fetched []domain.Rate
	skipped := 0
	for day, i := from, 0; !day.After(to); day, i = day.AddDate(0, 0, 1), i+1 {
		if err := ctx.Err(); err != nil {
			return &UpdateResult{Status: UpdateError, Message: err.Error()}, err
		}
		if i > 0 && i%50 == 0 {
			u.logger.InfoContext(ctx, "Download progress", slog.Int("processed", i), slog.Int("total", total))
		}

		r, err := u.fetcher.FetchDay(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return &UpdateResult{Status: UpdateError, Message: ctx.Err().Error()}, ctx.Err()
			}
			u.metrics.RecordRatesFetch(ctx, 0, err)
			u.logger.WarnContext(ctx, "Skipped date",
				slog.String("date", day.Format("2006-01-02")),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		fetched = append(fetched, r)
	}
	u.metrics.RecordRatesFetch(ctx, len(fetched), nil)

	if len(fetched) == 0 {
		if existing == nil || existing.Len() == 0 {
			return &UpdateResult{Status: UpdateError, Message: "Не удалось загрузить курсы", Skipped: skipped},
				fmt.Errorf("no rates downloaded between %s and %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		latest, _ := existing.Latest()
		return &UpdateResult{
			Status:   UpdatePartial,
			Message:  fmt.Sprintf("Нет новых данных. Используются курсы на %s", latest.Date.Format("02.01.2006")),
			Skipped:  skipped,
			LastDate: latest.Date,
		}, nil
	}

	merged := append(existing.Entries(), fetched...)
	table := NewTable(merged)
	if err := SaveFile(u.path, table); err != nil {
		return &UpdateResult{Status: UpdateError, Message: err.Error()}, err
	}

	latest, _ := table.Latest()
	u.logger.InfoContext(ctx, "Rate file updated",
		slog.String("path", u.path),
		slog.Int("added", len(fetched)),
		slog.Int("skipped", skipped),
		slog.Int("total", table.Len()))

	return &UpdateResult{
		Status:   UpdateSuccess,
		Message:  fmt.Sprintf("Курсы валют обновлены до %s", latest.Date.Format("02.01.2006")),
		Added:    len(fetched),
		Skipped:  skipped,
		LastDate: latest.Date,
	}, nil
}
