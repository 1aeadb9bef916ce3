package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CellKind tells how a Cell should be read
type CellKind uint8

const (
	// CellNull is a missing value
	CellNull CellKind = iota
	// CellText is a label value
	CellText
	// CellNumber is a numeric observation
	CellNumber
)

// Cell is a single table value. Label columns carry text, year columns carry
// nullable numbers.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
}

// Text returns a text cell
func Text(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// Number returns a numeric cell
func Number(v float64) Cell {
	return Cell{Kind: CellNumber, Num: v}
}

// Null returns a missing cell
func Null() Cell {
	return Cell{Kind: CellNull}
}

// IsNull reports whether the cell holds no value
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// Float returns the numeric value and whether one is present
func (c Cell) Float() (float64, bool) {
	if c.Kind != CellNumber {
		return 0, false
	}
	return c.Num, true
}

// String renders the cell for exports. Integral numbers are written without
// a fractional part.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		if c.Num == math.Trunc(c.Num) && math.Abs(c.Num) < 1e15 {
			return strconv.FormatInt(int64(c.Num), 10)
		}
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value (string, float64 or nil), used
// by JSON and SQL sinks.
func (c Cell) Value() interface{} {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Num
	default:
		return nil
	}
}

// Row is an ordered tuple of cells matching Table.Columns
type Row []Cell

// Table is an in-memory rectangular table with named columns. The leading
// columns are category labels (region, age, settlement), the rest are years.
type Table struct {
	Columns []string
	Rows    []Row
}

// KeyColumns is the number of leading label columns that identify a row
const KeyColumns = 3

var yearHeaderRe = regexp.MustCompile(`^\d{4}$`)

// IsYearColumn reports whether a header names a reporting year
func IsYearColumn(name string) bool {
	return yearHeaderRe.MatchString(name)
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds a row, padding or truncating it to the column count
func (t *Table) Append(cells ...Cell) {
	row := make(Row, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}

// Get returns the cell at row i for the named column
func (t *Table) Get(i int, column string) Cell {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return Null()
	}
	return t.Rows[i][idx]
}

// YearColumns returns the indexes and parsed years of every year column
func (t *Table) YearColumns() ([]int, []int) {
	var idx, years []int
	for i, c := range t.Columns {
		if !IsYearColumn(c) {
			continue
		}
		y, err := strconv.Atoi(c)
		if err != nil {
			continue
		}
		idx = append(idx, i)
		years = append(years, y)
	}
	return idx, years
}

// keyWidth is the number of key columns actually available
func (t *Table) keyWidth() int {
	if len(t.Columns) < KeyColumns {
		return len(t.Columns)
	}
	return KeyColumns
}

// Key returns the identifying tuple of a row joined into a single string
func (t *Table) Key(i int) string {
	return rowKey(t.Rows[i], t.keyWidth())
}

func rowKey(r Row, width int) string {
	parts := make([]string, width)
	for j := 0; j < width && j < len(r); j++ {
		parts[j] = r[j].String()
	}
	return strings.Join(parts, "\x1f")
}

// Records renders the table as string records for CSV style sinks
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rec := make([]string, len(r))
		for j, c := range r {
			rec[j] = c.String()
		}
		out[i] = rec
	}
	return out
}

// Maps renders each row as column -> value, used for JSON responses
func (t *Table) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		m := make(map[string]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(r) {
				m[c] = r[j].Value()
			}
		}
		out[i] = m
	}
	return out
}
