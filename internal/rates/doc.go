// Package rates owns the historical exchange-rate table: loading and saving the
// date,USD,EUR rate file, lookup by date, freshness status, and the job that
// refreshes the file from the Central Bank of Russia.
//
// The pipeline only ever reads the file through a Provider; fetching happens in
// the separate rates-updater binary.
package rates
