package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "lastschrift.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"Mandat", "Datum", "Name", "IBAN", "BIC", "Betrag", "Zweck", "Wechsel"},
		{"M-1", "2023-06-01", "Max Mustermann", "DE87200500001234567890", "HASPDEHHXXX", "10.00", "Rechnung 1", "0"},
		{},
		{"M-2", "2023-06-02", " Erika Musterfrau ", "DE21500500009876543210", "BELADEBEXXX", "20.50", "Rechnung 2", "1", "OLD-2"},
	})

	sheet, err := Parse(path, config.InputSettings{HeaderRows: 1})
	require.NoError(t, err)

	assert.Equal(t, path, sheet.SourceFile)
	assert.Equal(t, "Sheet1", sheet.Name)
	require.Equal(t, 2, sheet.RowCount())

	assert.Equal(t, 2, sheet.Records[0].Row)
	assert.Equal(t, "M-1", sheet.Records[0].Fields[0])
	assert.Len(t, sheet.Records[0].Fields, 8)

	assert.Equal(t, 4, sheet.Records[1].Row)
	assert.Equal(t, "Erika Musterfrau", sheet.Records[1].Fields[2])
	assert.Equal(t, "OLD-2", sheet.Records[1].Fields[8])
}

func TestParseNamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Lastschriften", [][]interface{}{
		{"M-1", "2023-06-01", "Max Mustermann", "DE87200500001234567890", "HASPDEHHXXX", "10.00", "Rechnung 1", "0"},
	})

	sheet, err := Parse(path, config.InputSettings{SheetName: "Lastschriften"})
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.RowCount())

	_, err = Parse(path, config.InputSettings{SheetName: "Missing"})
	assert.ErrorContains(t, err, `sheet "Missing" not found`)

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Contains(t, names, "Lastschriften")
}

func TestParseEmptySheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"Mandat", "Datum"},
	})

	_, err := Parse(path, config.InputSettings{HeaderRows: 1})
	assert.ErrorIs(t, err, ErrEmptySheet)
}
