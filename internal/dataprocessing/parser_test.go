package dataprocessing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "fedstatcli/internal/errors"
)

// buildWorkbook writes rows starting at A1; nil cells are left empty
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, r := range rows {
		for j, v := range r {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseSpreadsheetXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Численность населения"},
		{},
		{"человек"},
		{},
		{nil, nil, nil, "2020", 2021.0},
		{"Омская область", "0 лет", "Все население", 100, "110"},
		{},
		{"Томская область", "1 год", "Все население", nil, 210},
	})

	tbl, err := ParseSpreadsheet(data, ParseOptions{
		HeaderRow:  DefaultHeaderRow,
		RowHeaders: []string{"Субъект", "Возраст", "Тип поселения"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Субъект", "Возраст", "Тип поселения", "2020", "2021"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Омская область", tbl.Rows[0][0].String())
	assert.Equal(t, "100", tbl.Rows[0][3].String())
	assert.True(t, tbl.Rows[1][3].IsNull())
	assert.Equal(t, "210", tbl.Rows[1][4].String())
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseSpreadsheetXLS(t *testing.T) {
	// births.xls: title block with missing rows, blank label headers at row 4,
	// numbers stored as RK, MULRK and NUMBER records with a custom "# ##0" format
	tbl, err := ParseSpreadsheet(readFixture(t, "births.xls"), ParseOptions{
		HeaderRow:  DefaultHeaderRow,
		RowHeaders: []string{"Субъект", "Возраст", "Тип поселения"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Субъект", "Возраст", "Тип поселения", "2020", "2021"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	tests := []struct {
		row  int
		want []string
	}{
		{0, []string{"Алтайский край", "0 лет", "Все население", "100", "110"}},
		{1, []string{"Омская область", "1 год", "Все население", "205", "210.5"}},
	}
	for _, tt := range tests {
		got := make([]string, len(tbl.Rows[tt.row]))
		for j, c := range tbl.Rows[tt.row] {
			got[j] = c.String()
		}
		assert.Equal(t, tt.want, got)
	}

	v, ok := ParseCount(tbl.Rows[0][3]).Float()
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestParseSpreadsheetXLSFormula(t *testing.T) {
	_, err := ParseSpreadsheet(readFixture(t, "formula.xls"), ParseOptions{HeaderRow: DefaultHeaderRow})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFormat)
	assert.Contains(t, err.Error(), "formula cell at row 5 column 3")
}

func TestParseSpreadsheetHeaderFallback(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{nil, "Возраст", nil, "2020"},
		{"Омская область", "0", "Все население", 1},
	})

	tbl, err := ParseSpreadsheet(data, ParseOptions{HeaderRow: 0, RowHeaders: []string{"Субъект"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Субъект", "Возраст", "column_2", "2020"}, tbl.Columns)
}

func TestParseSpreadsheetErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		opts ParseOptions
	}{
		{
			name: "html payload",
			data: []byte("<html><body>Ошибка</body></html>"),
			opts: ParseOptions{HeaderRow: DefaultHeaderRow},
		},
		{
			name: "empty payload",
			data: nil,
			opts: ParseOptions{HeaderRow: DefaultHeaderRow},
		},
		{
			name: "truncated zip",
			data: []byte("PK\x03\x04broken"),
			opts: ParseOptions{HeaderRow: DefaultHeaderRow},
		},
		{
			name: "truncated xls",
			data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00},
			opts: ParseOptions{HeaderRow: DefaultHeaderRow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpreadsheet(tt.data, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrFormat)
		})
	}
}

func TestParseSpreadsheetHeaderBeyondSheet(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{{"a"}, {"b"}})
	_, err := ParseSpreadsheet(data, ParseOptions{HeaderRow: 40})
	assert.ErrorIs(t, err, apperrors.ErrFormat)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "2020", normalizeHeader(" 2020 "))
	assert.Equal(t, "2020", normalizeHeader("2020.0"))
	assert.Equal(t, "Возраст", normalizeHeader("Возраст"))
	assert.Equal(t, "", normalizeHeader("   "))
}
