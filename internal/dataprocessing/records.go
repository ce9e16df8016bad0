package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cruisepulse/pkg/contracts/domain"
)

// dateLayouts are tried in order when parsing booking dates
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2.1.2006",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"2006/01/02",
}

// Excel serial numbers accepted as dates: 1954-10-03 to 2119-01-07
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// BuildRecords converts table rows into booking records with typed dates and
// amounts. Unparsable dates become zero times and unparsable amounts are
// treated as absent.
func BuildRecords(t *domain.Table) []domain.BookingRecord {
	records := make([]domain.BookingRecord, len(t.Rows))
	for i, row := range t.Rows {
		fields := make(map[string]string, len(t.Columns))
		for c, name := range t.Columns {
			fields[name] = cellAt(row, c)
		}

		rec := domain.BookingRecord{Fields: fields}
		rec.CreationDate, _ = ParseDate(fields[domain.FieldCreationDate])
		rec.CheckinDate, _ = ParseDate(fields[domain.FieldCheckinDate])
		rec.AmountToPay, rec.HasAmount = ParseAmount(fields[domain.FieldAmountToPay])
		rec.Payment, rec.HasPayment = ParseAmount(fields[domain.FieldPayment])
		records[i] = rec
	}
	return records
}

// ParseDate parses a booking date in any of the supported layouts, or an Excel
// serial date. Times are wall-clock and carry no zone.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Round(time.Second), true
		}
	}

	return time.Time{}, false
}

// ParseAmount parses a numeric cell. Spaces used as digit grouping are ignored.
// NaN and infinities count as absent.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
