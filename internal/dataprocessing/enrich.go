package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cruisepulse/pkg/contracts/domain"
)

// Enrichment variants
const (
	RegionFromCountry   = domain.FieldCountry
	RegionFromBuyerName = domain.FieldBuyerName
	CheckinFromNow      = "now"
	CheckinFromCreation = "creation_date"
)

// minChunkSize keeps parallel enrichment from splitting small inputs
const minChunkSize = 256

var cruiseMarkers = []string{"круиз", "cruise"}

// EnrichOptions selects the enrichment variant
type EnrichOptions struct {
	// RegionSource is the field region labels are derived from
	RegionSource string
	// CheckinReference is what days_until_checkin counts from
	CheckinReference string
	// Workers above one enrich rows in parallel chunks
	Workers int
	// Now is the clock for CheckinFromNow
	Now func() time.Time
}

// EnrichCounts are the counters produced by enrichment
type EnrichCounts struct {
	ConvertedCurrency  int
	ConversionFailures int
	ExtractedRegions   int
}

func (c *EnrichCounts) add(o EnrichCounts) {
	c.ConvertedCurrency += o.ConvertedCurrency
	c.ConversionFailures += o.ConversionFailures
	c.ExtractedRegions += o.ExtractedRegions
}

// Enricher derives the analytic fields of each booking
type Enricher struct {
	converter *CurrencyConverter
	opts      EnrichOptions
	logger    *slog.Logger
}

// NewEnricher creates an enricher. A nil converter means no rates are loaded:
// every amount_rub is zero and no conversion is counted.
func NewEnricher(converter *CurrencyConverter, opts EnrichOptions, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RegionSource == "" {
		opts.RegionSource = RegionFromCountry
	}
	if opts.CheckinReference == "" {
		opts.CheckinReference = CheckinFromNow
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Enricher{
		converter: converter,
		opts:      opts,
		logger:    logger.With("component", "enricher"),
	}
}

// Enrich computes the derived fields for every record. Output order matches input
// order and the counters do not depend on the number of workers.
func (e *Enricher) Enrich(ctx context.Context, records []domain.BookingRecord) ([]domain.EnrichedRecord, EnrichCounts, error) {
	out := make([]domain.EnrichedRecord, len(records))
	now := wallClock(e.opts.Now())

	chunk := len(records)
	if e.opts.Workers > 1 {
		chunk = int(math.Ceil(float64(len(records)) / float64(e.opts.Workers)))
		if chunk < minChunkSize {
			chunk = minChunkSize
		}
	}
	if chunk == 0 {
		return out, EnrichCounts{}, nil
	}

	nChunks := (len(records) + chunk - 1) / chunk
	partial := make([]EnrichCounts, nChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := 0; i < nChunks; i++ {
		lo := i * chunk
		hi := min(lo+chunk, len(records))
		g.Go(func() error {
			for j := lo; j < hi; j++ {
				if j%1000 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[j] = e.enrichOne(records[j], now, &partial[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, EnrichCounts{}, err
	}

	var counts EnrichCounts
	for _, p := range partial {
		counts.add(p)
	}

	e.logger.InfoContext(ctx, "Enrichment complete",
		slog.Int("rows", len(out)),
		slog.Int("chunks", nChunks),
		slog.Int("converted_currency", counts.ConvertedCurrency),
		slog.Int("conversion_failures", counts.ConversionFailures),
		slog.Int("extracted_regions", counts.ExtractedRegions))

	return out, counts, nil
}

func (e *Enricher) enrichOne(rec domain.BookingRecord, now time.Time, counts *EnrichCounts) domain.EnrichedRecord {
	out := domain.EnrichedRecord{BookingRecord: rec}

	if e.converter != nil {
		conv := e.converter.Convert(rec)
		out.AmountRUB = conv.Amount
		switch {
		case conv.Converted:
			counts.ConvertedCurrency++
		case conv.Err != nil:
			counts.ConversionFailures++
		}
	}

	if source, ok := rec.Field(e.opts.RegionSource); ok {
		out.Region = ExtractRegion(source)
		counts.ExtractedRegions++
	} else {
		out.Region = LabelUnknown
	}

	out.IsCruiseSeller = isCruise(rec)

	if out.AmountRUB > 0 && rec.HasPayment {
		out.PaymentPercentage = round2(rec.Payment / out.AmountRUB * 100)
	}

	reference := now
	if e.opts.CheckinReference == CheckinFromCreation {
		reference = rec.CreationDate
	}
	out.DaysUntilCheckin = daysBetween(reference, rec.CheckinDate)

	out.CreationMonth = LabelUnknown
	if !rec.CreationDate.IsZero() {
		out.CreationMonth = rec.CreationDate.Format("2006-01")
	}

	return out
}

func isCruise(rec domain.BookingRecord) bool {
	for _, field := range []string{domain.FieldTourName, domain.FieldCountry} {
		v, ok := rec.Field(field)
		if !ok {
			continue
		}
		lower := strings.ToLower(v)
		for _, marker := range cruiseMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// daysBetween returns whole days from..to, rounded down; zero when either is unknown
func daysBetween(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// wallClock reinterprets t's local wall time as a zone-less time, matching how
// booking dates are parsed.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
