// Package exporter writes pipeline results.
//
// CSVWriter produces the result file: UTF-8 with a BOM so spreadsheet tools
// detect the encoding, named processed_YYYYMMDD_HHMMSS.csv and written through a
// temporary file that is renamed into place, so a failed export never leaves a
// partial file behind.
//
// SheetsPublisher optionally mirrors a result into a Google Sheets worksheet,
// replacing its previous contents. Numeric columns are sent as numbers.
package exporter
