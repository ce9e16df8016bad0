package domain

// ProcessingStats are the counters of a single pipeline run. A fresh value is
// created per run and is read-only once the run returns it.
type ProcessingStats struct {
	OriginalRows              int      `json:"original_rows"`
	OriginalCols              int      `json:"original_cols"`
	RemovedDuplicates         int      `json:"removed_duplicates"`
	RemovedCancelled          int      `json:"removed_cancelled"`
	RemovedEmptyVoucher       int      `json:"removed_empty_voucher"`
	FilledBuyerNameClientHall int      `json:"filled_buyer_name_client_hall"`
	FilledBuyerNameUndefined  int      `json:"filled_buyer_name_undefined"`
	ConvertedCurrency         int      `json:"converted_currency"`
	ConversionFailures        int      `json:"conversion_failures"`
	ExtractedRegions          int      `json:"extracted_regions"`
	ImputedAmounts            int      `json:"imputed_amounts"`
	ImputedPayments           int      `json:"imputed_payments"`
	RatesAvailable            bool     `json:"rates_available"`
	FinalRows                 int      `json:"final_rows"`
	FinalCols                 int      `json:"final_cols"`
	AddedCols                 []string `json:"added_cols"`
}

// NewProcessingStats returns zeroed counters
func NewProcessingStats() *ProcessingStats {
	return &ProcessingStats{AddedCols: []string{}}
}

// TotalRemoved returns the number of rows dropped by the row filter
func (s *ProcessingStats) TotalRemoved() int {
	return s.RemovedDuplicates + s.RemovedCancelled + s.RemovedEmptyVoucher
}

// ToMap returns the counters keyed by their JSON names
func (s *ProcessingStats) ToMap() map[string]any {
	return map[string]any{
		"original_rows":                 s.OriginalRows,
		"original_cols":                 s.OriginalCols,
		"removed_duplicates":            s.RemovedDuplicates,
		"removed_cancelled":             s.RemovedCancelled,
		"removed_empty_voucher":         s.RemovedEmptyVoucher,
		"filled_buyer_name_client_hall": s.FilledBuyerNameClientHall,
		"filled_buyer_name_undefined":   s.FilledBuyerNameUndefined,
		"converted_currency":            s.ConvertedCurrency,
		"conversion_failures":           s.ConversionFailures,
		"extracted_regions":             s.ExtractedRegions,
		"imputed_amounts":               s.ImputedAmounts,
		"imputed_payments":              s.ImputedPayments,
		"rates_available":               s.RatesAvailable,
		"final_rows":                    s.FinalRows,
		"final_cols":                    s.FinalCols,
		"added_cols":                    append([]string{}, s.AddedCols...),
	}
}
