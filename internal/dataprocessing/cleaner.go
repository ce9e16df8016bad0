package dataprocessing

import (
	"strconv"
	"strings"

	"cruisepulse/pkg/contracts/domain"
)

// CleanNumeric strips thousands separators. Every column holding at least one
// comma has each cell whose comma-free text parses as a number replaced by that
// text; other cells are left untouched. It returns the cleaned table and the
// number of columns that were touched.
func CleanNumeric(t *domain.Table) (*domain.Table, int) {
	out := t.Clone()
	cleaned := 0

	for c := range out.Columns {
		if !columnHasComma(out, c) {
			continue
		}
		cleaned++
		for _, row := range out.Rows {
			if c >= len(row) || row[c] == "" {
				continue
			}
			stripped := strings.ReplaceAll(strings.TrimSpace(row[c]), ",", "")
			if _, err := strconv.ParseFloat(stripped, 64); err == nil {
				row[c] = stripped
			}
		}
	}

	return out, cleaned
}

func columnHasComma(t *domain.Table, c int) bool {
	for _, row := range t.Rows {
		if c < len(row) && strings.Contains(row[c], ",") {
			return true
		}
	}
	return false
}
