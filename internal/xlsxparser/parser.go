// =============================================================================
// SEPA Direct Debit Converter - XLSX Parser
// =============================================================================
//
// This module reads debtor lists kept in Excel workbooks. The sheet uses the
// same column order as the CSV input:
//
//   | A         | B           | C    | D    | E   | F      | G       | H           | I              | J                   |
//   |-----------|-------------|------|------|-----|--------|---------|-------------|----------------|---------------------|
//   | Mandate   | Signed      | Name | IBAN | BIC | Amount | Message | BankChanged | Orig. Mandate  | Orig. Debtor IBAN   |
//
// Cell values are read as displayed by Excel, so amounts and dates may need
// a profile transformation (e.g. decimal_comma or format_date).
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

// ErrEmptySheet is returned when a sheet holds no data rows.
var ErrEmptySheet = errors.New("sheet contains no data rows")

// =============================================================================
// SHEET STRUCTURE
// =============================================================================

// Sheet represents the data rows of one worksheet.
type Sheet struct {
	// Records are the data rows in sheet order. Row is the Excel row number.
	Records []sepa.Record

	// SourceFile is the path to the workbook.
	SourceFile string

	// Name is the worksheet the rows were read from.
	Name string

	// SkippedRows counts header rows and blank rows.
	SkippedRows int
}

// RowCount is the number of data rows.
func (s *Sheet) RowCount() int {
	return len(s.Records)
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the configured sheet of an XLSX workbook. An empty
// settings.SheetName selects the first sheet.
func Parse(filePath string, settings config.InputSettings) (*Sheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := parseFile(f, settings)
	if err != nil {
		return nil, err
	}
	sheet.SourceFile = filePath

	return sheet, nil
}

func parseFile(f *excelize.File, settings config.InputSettings) (*Sheet, error) {
	sheetName := settings.SheetName
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheetName, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	sheet := &Sheet{Name: sheetName}

	for i, row := range rows {
		if i < settings.HeaderRows || isRowEmpty(row) {
			sheet.SkippedRows++
			continue
		}

		fields := make([]string, len(row))
		for col, cell := range row {
			fields[col] = strings.TrimSpace(cell)
		}

		sheet.Records = append(sheet.Records, sepa.Record{Row: i + 1, Fields: fields})
	}

	if len(sheet.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", sheetName, ErrEmptySheet)
	}

	return sheet, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// SheetNames lists the worksheets of a workbook.
func SheetNames(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}
