package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"cruisepulse/internal/rates"
	"cruisepulse/pkg/contracts/domain"
)

// currencySynonyms maps the currency spellings found in exports to ISO codes
var currencySynonyms = map[string]domain.Currency{
	"E":   domain.CurrencyEUR,
	"EUR": domain.CurrencyEUR,
	"€":   domain.CurrencyEUR,
	"$":   domain.CurrencyUSD,
	"USD": domain.CurrencyUSD,
	"рб":  domain.CurrencyRUB,
	"RUB": domain.CurrencyRUB,
	"руб": domain.CurrencyRUB,
}

var (
	// ErrNoCreationDate means a foreign amount has no date to pick a rate for
	ErrNoCreationDate = errors.New("no valid creation date")
	// ErrNoRates means no rate table is loaded
	ErrNoRates = errors.New("exchange rates unavailable")
	// ErrCurrencyNotInRates means the chosen rate entry lacks the currency
	ErrCurrencyNotInRates = errors.New("currency missing from rate entry")
	// ErrNotFinite means an amount or rate is NaN or infinite
	ErrNotFinite = errors.New("value is not a finite number")
)

// Conversion is the outcome of converting one booking amount to RUB
type Conversion struct {
	Amount    float64
	Converted bool
	Err       error
}

// NormalizeCurrency maps a currency cell to an ISO code. Matching is exact after
// trimming; anything unrecognized is RUB.
func NormalizeCurrency(raw string) domain.Currency {
	if c, ok := currencySynonyms[strings.TrimSpace(raw)]; ok {
		return c
	}
	return domain.CurrencyRUB
}

// CurrencyConverter converts booking amounts to RUB at the central-bank rate of
// the booking's creation date plus a markup.
type CurrencyConverter struct {
	table  *rates.Table
	markup decimal.Decimal
	logger *slog.Logger
}

// NewCurrencyConverter creates a converter. A nil table converts RUB amounts
// only; every foreign amount fails with ErrNoRates.
func NewCurrencyConverter(table *rates.Table, markup float64, logger *slog.Logger) *CurrencyConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurrencyConverter{
		table:  table,
		markup: decimal.NewFromFloat(markup),
		logger: logger.With("component", "currency_converter"),
	}
}

// Convert returns the RUB amount of a booking. It never fails the run: problems
// yield a zero amount with Err set.
func (c *CurrencyConverter) Convert(rec domain.BookingRecord) Conversion {
	if !rec.HasAmount || rec.AmountToPay == 0 {
		return Conversion{}
	}

	raw, _ := rec.Field(domain.FieldCurrency)
	currency := NormalizeCurrency(raw)
	if !isFinite(rec.AmountToPay) {
		return c.fail(rec, currency, ErrNotFinite)
	}
	amount := decimal.NewFromFloat(rec.AmountToPay)

	if currency == domain.BaseCurrency {
		return Conversion{Amount: amount.Round(2).InexactFloat64(), Converted: true}
	}

	if rec.CreationDate.IsZero() {
		return c.fail(rec, currency, ErrNoCreationDate)
	}
	if c.table.Len() == 0 {
		return c.fail(rec, currency, ErrNoRates)
	}

	entry, fallback, _ := c.table.Lookup(rec.CreationDate)
	if fallback {
		c.logger.Warn("Creation date precedes available rates, using earliest rate",
			slog.String("voucher_id", rec.VoucherID()),
			slog.String("creation_date", rec.CreationDate.Format("2006-01-02")),
			slog.String("rate_date", entry.Date.Format("2006-01-02")))
	}

	rate, ok := entry.Value(currency)
	if !ok {
		return c.fail(rec, currency, fmt.Errorf("%w: %s on %s", ErrCurrencyNotInRates, currency, entry.Date.Format("2006-01-02")))
	}
	if !isFinite(rate) {
		return c.fail(rec, currency, fmt.Errorf("%w: %s rate on %s", ErrNotFinite, currency, entry.Date.Format("2006-01-02")))
	}

	converted := amount.Mul(decimal.NewFromFloat(rate)).Mul(c.markup).Round(2)
	return Conversion{Amount: converted.InexactFloat64(), Converted: true}
}

func (c *CurrencyConverter) fail(rec domain.BookingRecord, currency domain.Currency, err error) Conversion {
	level := slog.LevelWarn
	if errors.Is(err, ErrCurrencyNotInRates) {
		level = slog.LevelError
	}
	c.logger.Log(context.Background(), level, "Currency conversion failed",
		slog.String("voucher_id", rec.VoucherID()),
		slog.String("currency", string(currency)),
		slog.String("error", err.Error()))
	return Conversion{Err: err}
}

// round2 rounds half away from zero to two decimals. Non-finite values round to 0.
func round2(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
