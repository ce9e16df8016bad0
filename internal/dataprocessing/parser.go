package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/pkg/contracts/domain"
)

const utf8BOM = "\ufeff"

// ParseFile reads a booking export into a Table. The format is chosen by
// extension: .csv (UTF-8, BOM tolerated) or .xlsx (first sheet). Legacy .xls
// workbooks are rejected.
func ParseFile(filePath string) (*domain.Table, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".csv", ".xlsx":
	case ".xls":
		return nil, apperrors.NewParsingError("legacy .xls workbooks are not supported, save the file as .xlsx", nil).
			WithContext("file", filepath.Base(filePath))
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported input format %q", ext), nil).
			WithContext("file", filepath.Base(filePath))
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open input file", err).
			WithContext("file", filepath.Base(filePath))
	}
	defer f.Close()

	if ext == ".csv" {
		return ParseCSV(f)
	}
	return ParseXLSX(f)
}

// ParseCSV reads comma-separated content with a header row. Blank lines are skipped.
func ParseCSV(r io.Reader) (*domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV input", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return buildTable(records)
}

// ParseXLSX reads the first worksheet of a workbook. Cells are read raw so
// numbers keep full precision and dates arrive as Excel serial numbers.
func ParseXLSX(r io.Reader) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read worksheet", err).
			WithContext("sheet", sheets[0])
	}
	return buildTable(rows)
}

// buildTable takes the first row as header and drops blank rows
func buildTable(rows [][]string) (*domain.Table, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("input has no header row", nil)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		data = append(data, row)
	}

	return domain.NewTable(header, data), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
