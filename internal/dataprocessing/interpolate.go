package dataprocessing

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Suffixes of the reshaped year columns
const (
	EndSuffix = "end"
	MidSuffix = "mid"
)

var seriesColumnRe = regexp.MustCompile(`^(\d{4})(end|mid)$`)

// EndColumn names the year-end column of a year
func EndColumn(year int) string {
	return fmt.Sprintf("%d%s", year, EndSuffix)
}

// MidColumn names the mid-year column of a year
func MidColumn(year int) string {
	return fmt.Sprintf("%d%s", year, MidSuffix)
}

// ParseSeriesColumn splits a reshaped column name into year and suffix
func ParseSeriesColumn(name string) (int, string, bool) {
	m := seriesColumnRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return y, m[2], true
}

// Mean returns the average of two cells, null when either is missing
func Mean(a, b Cell) Cell {
	av, aok := a.Float()
	bv, bok := b.Float()
	if !aok || !bok {
		return Null()
	}
	return Number((av + bv) / 2)
}

// Interpolate reshapes year columns into "{Y}end" and "{Y}mid" columns and
// orders rows by region, then by age.
//
// The earliest year only gets an end column. Every later year Y gets
// "{Y}mid", the mean of Y and Y-1, followed by "{Y}end". Rows stay grouped
// by region in first-seen order and are sorted inside each region by age
// class, minimum age and maximum age.
func Interpolate(t *Table) *Table {
	yearIdx, years := t.YearColumns()
	if len(years) == 0 {
		return sortByRegionAndAge(t.Clone())
	}

	minYear := years[0]
	byYear := make(map[int]int, len(years))
	for i, y := range years {
		byYear[y] = yearIdx[i]
		if y < minYear {
			minYear = y
		}
	}

	type source struct {
		col   int
		year  int
		isMid bool
	}
	var columns []string
	var sources []source
	yearAt := make(map[int]int, len(yearIdx))
	for i, col := range yearIdx {
		yearAt[col] = years[i]
	}
	for j, name := range t.Columns {
		y, ok := yearAt[j]
		if !ok {
			columns = append(columns, name)
			sources = append(sources, source{col: j})
			continue
		}
		if y > minYear {
			columns = append(columns, MidColumn(y))
			sources = append(sources, source{col: j, year: y, isMid: true})
		}
		columns = append(columns, EndColumn(y))
		sources = append(sources, source{col: j, year: y})
	}

	out := NewTable(columns...)
	for _, r := range t.Rows {
		row := make(Row, len(columns))
		for k, s := range sources {
			if !s.isMid {
				row[k] = r[s.col]
				continue
			}
			prev, ok := byYear[s.year-1]
			if !ok {
				row[k] = Null()
				continue
			}
			row[k] = Mean(r[s.col], r[prev])
		}
		out.Rows = append(out.Rows, row)
	}
	return sortByRegionAndAge(out)
}

// sortByRegionAndAge groups rows by region keeping the first-seen region
// order and stably sorts each group by age.
func sortByRegionAndAge(t *Table) *Table {
	if len(t.Columns) <= AgeColumn {
		return t
	}

	var regions []string
	groups := make(map[string][]Row)
	for _, r := range t.Rows {
		region := r[RegionColumn].String()
		if _, ok := groups[region]; !ok {
			regions = append(regions, region)
		}
		groups[region] = append(groups[region], r)
	}

	rows := make([]Row, 0, len(t.Rows))
	for _, region := range regions {
		g := groups[region]
		keys := make([]ageKey, len(g))
		for i, r := range g {
			keys[i] = newAgeKey(r[AgeColumn].String())
		}
		idx := make([]int, len(g))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return keys[idx[a]].less(keys[idx[b]])
		})
		for _, i := range idx {
			rows = append(rows, g[i])
		}
	}
	t.Rows = rows
	return t
}
