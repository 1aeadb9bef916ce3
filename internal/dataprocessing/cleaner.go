package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Column positions fixed by the request layout
const (
	RegionColumn     = 0
	AgeColumn        = 1
	SettlementColumn = 2
)

var ageUnitSuffixRe = regexp.MustCompile(`\s*(лет|года|год)$`)

// Clean removes presentation artifacts from a freshly loaded table and returns
// a new table; the input is left untouched.
//
// Region labels are trimmed, unit suffixes are stripped from age labels, year
// columns become nullable integers and duplicate rows (by region, age and
// settlement) are dropped keeping the last occurrence.
func Clean(t *Table) *Table {
	out := t.Clone()
	yearIdx, _ := out.YearColumns()
	isYear := make(map[int]bool, len(yearIdx))
	for _, i := range yearIdx {
		isYear[i] = true
	}

	for _, row := range out.Rows {
		if len(row) > RegionColumn && row[RegionColumn].Kind == CellText {
			row[RegionColumn] = Text(strings.TrimSpace(row[RegionColumn].Text))
		}
		if len(row) > AgeColumn && !isYear[AgeColumn] && row[AgeColumn].Kind == CellText {
			label := ageUnitSuffixRe.ReplaceAllString(row[AgeColumn].Text, "")
			row[AgeColumn] = Text(strings.TrimSpace(label))
		}
		for i := range yearIdx {
			col := yearIdx[i]
			if col < len(row) {
				row[col] = ParseCount(row[col])
			}
		}
	}

	out.Rows = dedupeKeepLast(out.Rows, out.keyWidth())
	return out
}

// ParseCount coerces a cell to a nullable integer. Anything that is not a
// number becomes null.
func ParseCount(c Cell) Cell {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return Null()
		}
		return Number(math.Round(c.Num))
	case CellText:
		s := strings.Map(func(r rune) rune {
			switch r {
			case ' ', ' ', ' ', '\t':
				return -1
			case ',':
				return '.'
			}
			return r
		}, c.Text)
		if s == "" {
			return Null()
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Null()
		}
		return Number(math.Round(v))
	default:
		return Null()
	}
}

// dedupeKeepLast drops rows whose key repeats later in the slice. Surviving
// rows keep their relative order.
func dedupeKeepLast(rows []Row, width int) []Row {
	seen := make(map[string]bool, len(rows))
	keep := make([]bool, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		k := rowKey(rows[i], width)
		if seen[k] {
			continue
		}
		seen[k] = true
		keep[i] = true
	}

	out := make([]Row, 0, len(seen))
	for i, r := range rows {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}
