package dataprocessing

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	apperrors "fedstatcli/internal/errors"
)

// DefaultHeaderRow is the 0-based row holding column headers in fedstat
// exports; the rows above it are a title block.
const DefaultHeaderRow = 4

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	numericHeaderRe = regexp.MustCompile(`^(\d+)\.0+$`)
)

// xlsFormulaCell is what the xls reader yields for any FORMULA record in
// place of its cached result
const xlsFormulaCell = "FormulaCol"

// ParseOptions controls how a spreadsheet payload becomes a Table
type ParseOptions struct {
	// HeaderRow is the 0-based index of the header row
	HeaderRow int
	// RowHeaders names the leading label columns in request order. A blank
	// header at position N is replaced by RowHeaders[N].
	RowHeaders []string
	Logger     *slog.Logger
}

// ParseSpreadsheet decodes the first worksheet of an xlsx or legacy xls
// payload into a Table with repaired headers.
func ParseSpreadsheet(data []byte, opts ParseOptions) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rows [][]string
	var err error
	switch {
	case bytes.HasPrefix(data, zipMagic):
		rows, err = readXLSX(data)
	case bytes.HasPrefix(data, ole2Magic):
		rows, err = readXLS(data)
	default:
		return nil, apperrors.NewFormatError("payload is not a spreadsheet", nil).
			WithContext("size", len(data))
	}
	if err != nil {
		return nil, apperrors.NewFormatError("failed to read spreadsheet", err)
	}

	logger.Debug("Spreadsheet decoded",
		slog.Int("total_rows", len(rows)),
		slog.Int("header_row", opts.HeaderRow))

	return buildTable(rows, opts)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readXLS(data []byte) (rows [][]string, err error) {
	// the xls reader panics on truncated BIFF records
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt xls payload: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("payload has no workbook stream")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if sheet.MaxRow == 0 {
		return [][]string{}, nil
	}

	// Custom and date number formats render as timestamps. Statistical
	// exports hold no dates, so every cell is read with the General format.
	for _, xf := range wb.Xfs {
		switch x := xf.(type) {
		case *xls.Xf8:
			x.Format = 0
		case *xls.Xf5:
			x.Format = 0
		}
	}

	// ReadAllCells tolerates rows that have no ROW record; sheet.Row does not.
	rows = wb.ReadAllCells(int(sheet.MaxRow) + 1)
	for i, r := range rows {
		for j, c := range r {
			if c == xlsFormulaCell {
				return nil, fmt.Errorf("formula cell at row %d column %d cannot be decoded", i, j)
			}
		}
	}
	return rows, nil
}

// buildTable turns raw string rows into a Table. Rows above the header are
// ignored and blank rows are skipped.
func buildTable(rows [][]string, opts ParseOptions) (*Table, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow >= len(rows) {
		return nil, apperrors.NewFormatError(
			fmt.Sprintf("spreadsheet has %d rows, header expected at row %d", len(rows), opts.HeaderRow), nil)
	}

	header := rows[opts.HeaderRow]
	data := rows[opts.HeaderRow+1:]

	width := len(header)
	for _, r := range data {
		if len(r) > width {
			width = len(r)
		}
	}

	columns := make([]string, width)
	for j := 0; j < width; j++ {
		var name string
		if j < len(header) {
			name = normalizeHeader(header[j])
		}
		if name == "" {
			name = repairHeader(j, opts.RowHeaders)
		}
		columns[j] = name
	}

	t := NewTable(columns...)
	for _, r := range data {
		if isBlank(r) {
			continue
		}
		row := make(Row, width)
		for j := 0; j < width; j++ {
			if j < len(r) && strings.TrimSpace(r[j]) != "" {
				row[j] = Text(r[j])
			} else {
				row[j] = Null()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// repairHeader names a blank header from its position in the requested row
// category order
func repairHeader(pos int, rowHeaders []string) string {
	if pos < len(rowHeaders) && rowHeaders[pos] != "" {
		return rowHeaders[pos]
	}
	return fmt.Sprintf("column_%d", pos)
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	if m := numericHeaderRe.FindStringSubmatch(h); m != nil {
		return m[1]
	}
	return h
}

func isBlank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
