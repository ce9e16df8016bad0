// Package dataprocessing holds the stages that turn a raw booking export into
// enriched records. Each stage is a plain function or small type with no shared
// state, so the orchestrator in package operations decides order and owns the
// counters.
//
// # Stages
//
//	Parser:     .csv / .xlsx file → Table
//	Normalizer: export headers → canonical fields, other columns dropped
//	Cleaner:    thousands separators stripped from numeric cells
//	Filter:     cancelled and deleted vouchers, then empty voucher ids, removed
//	Fill:       empty buyer names filled from the department
//	Records:    Table rows → BookingRecord with typed dates and amounts
//	Imputer:    optional median fill of missing amounts per currency
//	Enricher:   amount_rub, region, is_cruise_seller, payment_percentage,
//	            days_until_checkin, creation_month
//
// # Usage
//
//	table, err := dataprocessing.ParseFile("bookings.xlsx")
//	if err != nil {
//	    return err
//	}
//	table, _ = dataprocessing.NormalizeColumns(table)
//	table, counts, err := dataprocessing.FilterRows(table)
//
// # Error Handling
//
// Only the parser and the row filter can fail a run; both return
// *errors.AppError values of type PARSING and VALIDATION. Row-level problems such
// as a missing exchange rate are absorbed: the converter reports them in
// Conversion.Err and the enricher counts them.
package dataprocessing
