package domain

// Table is a header row plus string cells. It is the working shape of an export
// between parsing and record building: absent columns stay absent, so every stage
// checks for the fields it needs.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates a table, padding short rows to the header width
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		t.Rows = append(t.Rows, padRow(row, len(columns)))
	}
	return t
}

// Index returns the position of column, or -1 when it is absent
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the column exists
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Cell returns the value at row/column and whether the column exists
func (t *Table) Cell(row int, column string) (string, bool) {
	idx := t.Index(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	if idx >= len(t.Rows[row]) {
		return "", true
	}
	return t.Rows[row][idx], true
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
