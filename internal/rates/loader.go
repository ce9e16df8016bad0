package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/pkg/contracts/domain"
)

// dateColumn is the header of the date column in the rate file
const dateColumn = "date"

// dateLayouts are the accepted date formats in the rate file, ISO first
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006",
}

// fileCurrencies is the column order written by SaveFile
var fileCurrencies = []domain.Currency{domain.CurrencyUSD, domain.CurrencyEUR}

// LoadFile reads a rate CSV with a date column followed by one column per currency
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewRatesError("rate file not found: "+path, err)
		}
		return nil, apperrors.NewRatesError("failed to open rate file", err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Read parses rate CSV content. Rows with an unparsable date are rejected;
// empty or unparsable rate cells leave that currency out of the day.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, apperrors.NewRatesError("rate file is empty", nil)
		}
		return nil, apperrors.NewRatesError("failed to read rate header", err)
	}

	dateIdx := -1
	currencies := make(map[int]domain.Currency)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(h, dateColumn) {
			dateIdx = i
			continue
		}
		if h != "" {
			currencies[i] = domain.Currency(strings.ToUpper(h))
		}
	}
	if dateIdx < 0 {
		return nil, apperrors.NewRatesError("rate file has no date column", nil)
	}

	var entries []domain.Rate
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewRatesError(fmt.Sprintf("failed to read rate row %d", line), err)
		}
		if dateIdx >= len(record) {
			continue
		}

		date, err := ParseDate(record[dateIdx])
		if err != nil {
			return nil, apperrors.NewRatesError(fmt.Sprintf("invalid date on row %d", line), err)
		}

		values := make(map[domain.Currency]float64, len(currencies))
		for i, c := range currencies {
			if i >= len(record) {
				continue
			}
			v, err := parseRate(record[i])
			if err != nil {
				continue
			}
			values[c] = v
		}
		entries = append(entries, domain.Rate{Date: date, Values: values})
	}

	return NewTable(entries), nil
}

// parseRate parses a rate cell. Only finite positive values are rates.
func parseRate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	return v, nil
}

// ParseDate parses a date in one of the rate file layouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// SaveFile writes the table as date,USD,EUR CSV. The file is written to a
// temporary sibling and renamed so readers never observe a partial file.
func SaveFile(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create rate directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".rates-*.csv")
	if err != nil {
		return apperrors.NewStorageError("failed to create temp rate file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, t); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to write rate file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close temp rate file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.NewStorageError("failed to replace rate file", err)
	}
	return nil
}

// Write renders the table as CSV
func Write(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	header := []string{dateColumn}
	for _, c := range fileCurrencies {
		header = append(header, string(c))
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range t.Entries() {
		row := []string{e.Date.Format("2006-01-02")}
		for _, c := range fileCurrencies {
			if v, ok := e.Value(c); ok {
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
