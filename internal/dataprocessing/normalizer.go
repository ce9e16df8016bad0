package dataprocessing

import "cruisepulse/pkg/contracts/domain"

// columnMapping maps export headers to canonical fields, in output order
var columnMapping = []struct {
	source    string
	canonical string
}{
	{"Путевка", domain.FieldVoucherID},
	{"Страна", domain.FieldCountry},
	{"Дата создания", domain.FieldCreationDate},
	{"Дата заезда", domain.FieldCheckinDate},
	{"Дней", domain.FieldDays},
	{"Человек", domain.FieldPeople},
	{"Статус путевки", domain.FieldVoucherStatus},
	{"Внутренний статус", domain.FieldInternalStatus},
	{"Валюта", domain.FieldCurrency},
	{"Сумма к оплате", domain.FieldAmountToPay},
	{"Оплата", domain.FieldPayment},
	{"Название тура", domain.FieldTourName},
	{"Покупатель: Ответственное подразделение", domain.FieldBuyerDepartment},
	{"Покупатель: Наименование", domain.FieldBuyerName},
	{"Покупатель: Категория ТА", domain.FieldBuyerCategory},
	{"Создатель", domain.FieldCreator},
	{"Ведущий менеджер", domain.FieldManager},
}

// CanonicalFields returns the canonical field names in output order
func CanonicalFields() []string {
	out := make([]string, len(columnMapping))
	for i, m := range columnMapping {
		out[i] = m.canonical
	}
	return out
}

// NormalizeColumns renames export headers to canonical fields and drops every
// other column. A column already named canonically is accepted as-is, so
// normalizing twice is a no-op. When several columns map to one field the
// leftmost wins. It returns the new table and the number of columns kept.
func NormalizeColumns(t *domain.Table) (*domain.Table, int) {
	var (
		columns []string
		indexes []int
	)

	for _, m := range columnMapping {
		for i, name := range t.Columns {
			if name == m.source || name == m.canonical {
				columns = append(columns, m.canonical)
				indexes = append(indexes, i)
				break
			}
		}
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(indexes))
		for c, idx := range indexes {
			if idx < len(row) {
				out[c] = row[idx]
			}
		}
		rows[r] = out
	}

	return &domain.Table{Columns: columns, Rows: rows}, len(columns)
}
