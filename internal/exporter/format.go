package exporter

import (
	"cruisepulse/pkg/contracts/domain"
)

// cellValue returns a record column as a typed spreadsheet value. Numeric and
// boolean columns stay numbers and booleans so the sheet can aggregate them;
// everything else is the text written to the CSV.
func cellValue(rec domain.EnrichedRecord, column string) interface{} {
	switch column {
	case domain.ColumnAmountRUB:
		return rec.AmountRUB
	case domain.ColumnPaymentPercentage:
		return rec.PaymentPercentage
	case domain.ColumnDaysUntilCheckin:
		return rec.DaysUntilCheckin
	case domain.ColumnIsCruiseSeller:
		return rec.IsCruiseSeller
	case domain.FieldAmountToPay:
		if rec.HasAmount {
			return rec.AmountToPay
		}
	case domain.FieldPayment:
		if rec.HasPayment {
			return rec.Payment
		}
	}
	return rec.Value(column)
}

// sheetValues renders the header and records as spreadsheet rows
func sheetValues(columns []string, records []domain.EnrichedRecord) [][]interface{} {
	values := make([][]interface{}, 0, len(records)+1)

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	values = append(values, header)

	for _, rec := range records {
		row := make([]interface{}, len(columns))
		for i, c := range columns {
			row[i] = cellValue(rec, c)
		}
		values = append(values, row)
	}
	return values
}
