package domain

import "time"

// Currency is an ISO currency code
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// BaseCurrency is the currency every amount is converted into
const BaseCurrency = CurrencyRUB

// Rate is one day of central-bank rates: RUB per one unit of each foreign currency.
type Rate struct {
	Date   time.Time            `json:"date"`
	Values map[Currency]float64 `json:"values"`
}

// Value returns the rate for currency and whether the day carries it
func (r Rate) Value(c Currency) (float64, bool) {
	v, ok := r.Values[c]
	return v, ok
}
