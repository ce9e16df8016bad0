package dataprocessing

import "cruisepulse/pkg/contracts/domain"

// Buyer name fill values
const (
	ClientHall       = "КЛИЕНТСКИЙ ЗАЛ"
	BuyerUnspecified = "Не определен"
)

// FillCounts reports how many buyer names were filled with each value
type FillCounts struct {
	ClientHall  int
	Unspecified int
}

// FillBuyerNames fills empty buyer names. Walk-in bookings from the client hall
// department get the department name, the rest are marked unspecified. Nothing
// happens unless both the department and name columns exist.
func FillBuyerNames(t *domain.Table) (*domain.Table, FillCounts) {
	var counts FillCounts

	deptIdx := t.Index(domain.FieldBuyerDepartment)
	nameIdx := t.Index(domain.FieldBuyerName)
	if deptIdx < 0 || nameIdx < 0 {
		return t, counts
	}

	out := t.Clone()
	for _, row := range out.Rows {
		if cellAt(row, nameIdx) != "" {
			continue
		}
		if cellAt(row, deptIdx) == ClientHall {
			row[nameIdx] = ClientHall
			counts.ClientHall++
			continue
		}
		row[nameIdx] = BuyerUnspecified
		counts.Unspecified++
	}

	return out, counts
}
