package domain

import (
	"strconv"
	"time"
)

// Canonical field names of a booking export
const (
	FieldVoucherID       = "voucher_id"
	FieldCountry         = "country"
	FieldCreationDate    = "creation_date"
	FieldCheckinDate     = "checkin_date"
	FieldDays            = "days"
	FieldPeople          = "people"
	FieldVoucherStatus   = "voucher_status"
	FieldInternalStatus  = "internal_status"
	FieldCurrency        = "currency"
	FieldAmountToPay     = "amount_to_pay"
	FieldPayment         = "payment"
	FieldTourName        = "tour_name"
	FieldBuyerDepartment = "buyer_department"
	FieldBuyerName       = "buyer_name"
	FieldBuyerCategory   = "buyer_category"
	FieldCreator         = "creator"
	FieldManager         = "manager"
)

// Derived column names appended by enrichment
const (
	ColumnAmountRUB         = "amount_rub"
	ColumnRegion            = "region"
	ColumnIsCruiseSeller    = "is_cruise_seller"
	ColumnPaymentPercentage = "payment_percentage"
	ColumnDaysUntilCheckin  = "days_until_checkin"
	ColumnCreationMonth     = "creation_month"
)

// DerivedColumns lists the enrichment columns in output order
var DerivedColumns = []string{
	ColumnAmountRUB,
	ColumnRegion,
	ColumnIsCruiseSeller,
	ColumnPaymentPercentage,
	ColumnDaysUntilCheckin,
	ColumnCreationMonth,
}

// BookingRecord is one filtered row of a booking export. Fields holds the raw
// cell values of the columns present in the source; the typed views are parsed
// from them once.
type BookingRecord struct {
	Fields       map[string]string `json:"fields"`
	CreationDate time.Time         `json:"creation_date,omitempty"`
	CheckinDate  time.Time         `json:"checkin_date,omitempty"`
	AmountToPay  float64           `json:"amount_to_pay"`
	HasAmount    bool              `json:"has_amount"`
	Payment      float64           `json:"payment"`
	HasPayment   bool              `json:"has_payment"`
}

// Field returns the raw value of a canonical field and whether the column exists
func (r BookingRecord) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// VoucherID returns the booking identifier
func (r BookingRecord) VoucherID() string {
	return r.Fields[FieldVoucherID]
}

// EnrichedRecord is a booking plus the analytic fields derived from it.
type EnrichedRecord struct {
	BookingRecord
	AmountRUB         float64 `json:"amount_rub"`
	Region            string  `json:"region"`
	IsCruiseSeller    bool    `json:"is_cruise_seller"`
	PaymentPercentage float64 `json:"payment_percentage"`
	DaysUntilCheckin  int     `json:"days_until_checkin"`
	CreationMonth     string  `json:"creation_month"`
}

// Value renders a column of the record as it appears in the output file
func (r EnrichedRecord) Value(column string) string {
	switch column {
	case ColumnAmountRUB:
		return strconv.FormatFloat(r.AmountRUB, 'f', 2, 64)
	case ColumnRegion:
		return r.Region
	case ColumnIsCruiseSeller:
		return strconv.FormatBool(r.IsCruiseSeller)
	case ColumnPaymentPercentage:
		return strconv.FormatFloat(r.PaymentPercentage, 'f', 2, 64)
	case ColumnDaysUntilCheckin:
		return strconv.Itoa(r.DaysUntilCheckin)
	case ColumnCreationMonth:
		return r.CreationMonth
	case FieldCreationDate:
		return formatDate(r.CreationDate)
	case FieldCheckinDate:
		return formatDate(r.CheckinDate)
	case FieldAmountToPay:
		if r.HasAmount {
			return strconv.FormatFloat(r.AmountToPay, 'f', -1, 64)
		}
	case FieldPayment:
		if r.HasPayment {
			return strconv.FormatFloat(r.Payment, 'f', -1, 64)
		}
	}
	return r.Fields[column]
}

// Row renders the record for the given column order
func (r EnrichedRecord) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = r.Value(c)
	}
	return row
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
