package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cruisepulse/pkg/contracts/domain"
)

func sampleRecord() domain.EnrichedRecord {
	return domain.EnrichedRecord{
		BookingRecord: domain.BookingRecord{
			Fields: map[string]string{
				domain.FieldVoucherID:    "V-1",
				domain.FieldAmountToPay:  "100",
				domain.FieldPayment:      "",
				domain.FieldCreationDate: "01.03.2024",
			},
			CreationDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			AmountToPay:  100,
			HasAmount:    true,
		},
		AmountRUB:         9927.5,
		Region:            "Москва",
		IsCruiseSeller:    true,
		PaymentPercentage: 50,
		DaysUntilCheckin:  9,
		CreationMonth:     "2024-03",
	}
}

func TestCellValue(t *testing.T) {
	rec := sampleRecord()

	tests := []struct {
		column string
		want   interface{}
	}{
		{domain.ColumnAmountRUB, 9927.5},
		{domain.ColumnPaymentPercentage, 50.0},
		{domain.ColumnDaysUntilCheckin, 9},
		{domain.ColumnIsCruiseSeller, true},
		{domain.ColumnRegion, "Москва"},
		{domain.ColumnCreationMonth, "2024-03"},
		{domain.FieldAmountToPay, 100.0},
		{domain.FieldPayment, ""},
		{domain.FieldCreationDate, "2024-03-01"},
		{domain.FieldVoucherID, "V-1"},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, cellValue(rec, tt.column))
		})
	}
}

func TestSheetValues(t *testing.T) {
	columns := []string{domain.FieldVoucherID, domain.ColumnAmountRUB}

	values := sheetValues(columns, []domain.EnrichedRecord{sampleRecord()})

	assert.Equal(t, [][]interface{}{
		{"voucher_id", "amount_rub"},
		{"V-1", 9927.5},
	}, values)
}

func TestSheetValues_NoRecords(t *testing.T) {
	values := sheetValues([]string{"a"}, nil)
	assert.Equal(t, [][]interface{}{{"a"}}, values)
}
