// Package operations runs the booking pipeline.
//
// A Pipeline executes a fixed sequence of Steps over one input table:
//
//	load_rates → normalize_columns → clean_numeric → filter_rows →
//	fill_buyer_names → [impute_missing] → enrich
//
// Each run gets its own RunState carrying the working table, the records built
// from it, the rate table and a fresh ProcessingStats. Step progress is tracked
// in StepState values that are returned with the Result.
//
// A failing Step stops the run and the remaining Steps are marked skipped.
// Errors are returned as *OperationError and keep their cause, so callers can
// still match the underlying *errors.AppError. Cancellation is checked between
// Steps and inside enrichment.
//
// Runs and Steps are traced and counted through OperationTracer when one is
// configured with WithTracer.
package operations
