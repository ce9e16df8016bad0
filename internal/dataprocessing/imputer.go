package dataprocessing

import (
	"sort"
	"strconv"

	"cruisepulse/pkg/contracts/domain"
)

// ImputeCounts reports how many values were filled
type ImputeCounts struct {
	Amounts  int
	Payments int
}

// ImputeMissing fills absent amount_to_pay and payment values with the median
// of the present values of the same currency. Columns missing from the export
// are left alone, as are currency groups with no values to take a median of.
// The input slice is not modified.
func ImputeMissing(records []domain.BookingRecord) ([]domain.BookingRecord, ImputeCounts) {
	var counts ImputeCounts

	amounts := make(map[domain.Currency][]float64)
	payments := make(map[domain.Currency][]float64)
	for _, rec := range records {
		cur := recordCurrency(rec)
		if rec.HasAmount {
			amounts[cur] = append(amounts[cur], rec.AmountToPay)
		}
		if rec.HasPayment {
			payments[cur] = append(payments[cur], rec.Payment)
		}
	}
	amountMedians := medians(amounts)
	paymentMedians := medians(payments)

	out := make([]domain.BookingRecord, len(records))
	for i, rec := range records {
		cur := recordCurrency(rec)
		needAmount := !rec.HasAmount && hasField(rec, domain.FieldAmountToPay)
		needPayment := !rec.HasPayment && hasField(rec, domain.FieldPayment)

		if needAmount || needPayment {
			rec = copyFields(rec)
		}
		if m, ok := amountMedians[cur]; ok && needAmount {
			rec.AmountToPay, rec.HasAmount = m, true
			rec.Fields[domain.FieldAmountToPay] = strconv.FormatFloat(m, 'f', -1, 64)
			counts.Amounts++
		}
		if m, ok := paymentMedians[cur]; ok && needPayment {
			rec.Payment, rec.HasPayment = m, true
			rec.Fields[domain.FieldPayment] = strconv.FormatFloat(m, 'f', -1, 64)
			counts.Payments++
		}
		out[i] = rec
	}

	return out, counts
}

func recordCurrency(rec domain.BookingRecord) domain.Currency {
	raw, _ := rec.Field(domain.FieldCurrency)
	return NormalizeCurrency(raw)
}

func hasField(rec domain.BookingRecord, name string) bool {
	_, ok := rec.Field(name)
	return ok
}

func copyFields(rec domain.BookingRecord) domain.BookingRecord {
	fields := make(map[string]string, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	rec.Fields = fields
	return rec
}

func medians(groups map[domain.Currency][]float64) map[domain.Currency]float64 {
	out := make(map[domain.Currency]float64, len(groups))
	for cur, values := range groups {
		if len(values) == 0 {
			continue
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			out[cur] = sorted[mid]
		} else {
			out[cur] = (sorted[mid-1] + sorted[mid]) / 2
		}
	}
	return out
}
