package dataprocessing

import (
	"strings"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/pkg/contracts/domain"
)

// excludedStatuses are voucher statuses of deleted or cancelled bookings
var excludedStatuses = map[string]struct{}{
	"Удален":      {},
	"Аннулирован": {},
	"удален":      {},
	"аннулирован": {},
}

// FilterCounts reports the rows removed by each filter rule
type FilterCounts struct {
	RemovedCancelled    int
	RemovedEmptyVoucher int
}

// Total returns all rows removed
func (c FilterCounts) Total() int {
	return c.RemovedCancelled + c.RemovedEmptyVoucher
}

// FilterRows drops cancelled or deleted bookings, then rows without a voucher id.
// Each counter is measured against the rows remaining before its own rule. A
// table with neither a status nor a voucher column cannot be filtered and is
// rejected.
func FilterRows(t *domain.Table) (*domain.Table, FilterCounts, error) {
	var counts FilterCounts

	statusIdx := t.Index(domain.FieldVoucherStatus)
	voucherIdx := t.Index(domain.FieldVoucherID)
	if statusIdx < 0 && voucherIdx < 0 {
		return nil, counts, apperrors.NewAppValidationError(
			"input has neither a voucher status nor a voucher id column")
	}

	rows := t.Rows
	if statusIdx >= 0 {
		kept := make([][]string, 0, len(rows))
		for _, row := range rows {
			if _, excluded := excludedStatuses[cellAt(row, statusIdx)]; excluded {
				continue
			}
			kept = append(kept, row)
		}
		counts.RemovedCancelled = len(rows) - len(kept)
		rows = kept
	}

	if voucherIdx >= 0 {
		kept := make([][]string, 0, len(rows))
		for _, row := range rows {
			if strings.TrimSpace(cellAt(row, voucherIdx)) == "" {
				continue
			}
			kept = append(kept, row)
		}
		counts.RemovedEmptyVoucher = len(rows) - len(kept)
		rows = kept
	}

	return &domain.Table{Columns: t.Columns, Rows: rows}, counts, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
