package dataprocessing

import (
	"fmt"

	apperrors "fedstatcli/internal/errors"
)

// ReconcileRowSets makes two independently fetched tables cover the same
// keys. Tables of equal length come back unchanged. Otherwise rows of the
// longer table whose key is absent from the shorter one are dropped, and an
// alignment error is returned if the lengths still differ. Tables that share
// no key at all never reconcile.
func ReconcileRowSets(a, b *Table) (*Table, *Table, error) {
	if a.Len() > 0 && b.Len() > 0 && !shareAnyKey(a, b) {
		return nil, nil, apperrors.NewAlignmentError("tables share no common keys").
			WithContext("rows_a", a.Len()).
			WithContext("rows_b", b.Len())
	}
	if a.Len() == b.Len() {
		return a, b, nil
	}

	larger, smaller := a, b
	swapped := false
	if b.Len() > a.Len() {
		larger, smaller = b, a
		swapped = true
	}

	keep := make(map[string]bool, smaller.Len())
	for i := range smaller.Rows {
		keep[smaller.Key(i)] = true
	}
	trimmed := NewTable(larger.Columns...)
	for i, r := range larger.Rows {
		if keep[larger.Key(i)] {
			trimmed.Rows = append(trimmed.Rows, append(Row(nil), r...))
		}
	}

	if trimmed.Len() != smaller.Len() {
		return nil, nil, apperrors.NewAlignmentError(
			fmt.Sprintf("row counts differ after reconciliation: %d vs %d", trimmed.Len(), smaller.Len()),
		)
	}
	if swapped {
		return smaller, trimmed, nil
	}
	return trimmed, smaller, nil
}

func shareAnyKey(a, b *Table) bool {
	keys := make(map[string]bool, a.Len())
	for i := range a.Rows {
		keys[a.Key(i)] = true
	}
	for i := range b.Rows {
		if keys[b.Key(i)] {
			return true
		}
	}
	return false
}

// AlignRows reorders b so that its rows follow a's key order. Both tables
// must hold the same set of unique keys.
func AlignRows(a, b *Table) (*Table, error) {
	if a.Len() != b.Len() {
		return nil, apperrors.NewAlignmentError(
			fmt.Sprintf("cannot align %d rows with %d rows", a.Len(), b.Len()),
		)
	}
	pos := make(map[string]int, b.Len())
	for i := range b.Rows {
		k := b.Key(i)
		if _, dup := pos[k]; dup {
			return nil, apperrors.NewAlignmentError("duplicate key in table").WithContext("key", k)
		}
		pos[k] = i
	}

	out := NewTable(b.Columns...)
	for i := range a.Rows {
		j, ok := pos[a.Key(i)]
		if !ok {
			return nil, apperrors.NewAlignmentError("key missing from table").WithContext("key", a.Key(i))
		}
		out.Rows = append(out.Rows, append(Row(nil), b.Rows[j]...))
	}
	return out, nil
}

// Ratio divides two cells. Missing operands and a zero divisor yield null.
func Ratio(num, den Cell) Cell {
	n, nok := num.Float()
	d, dok := den.Float()
	if !nok || !dok || d == 0 {
		return Null()
	}
	return Number(n / d)
}

// EstimateMissing fills null "{year}end" cells of primary from reference.
//
// For each row the primary/reference ratios of the neighbouring years are
// averaged (missing ratios are skipped) and applied to the reference value of
// the target year. Only cells that were null are written. The mid columns
// next to the year are then recomputed from the end values. Rows are matched
// by position, so both tables must already be aligned.
func EstimateMissing(primary, reference *Table, year int) (*Table, error) {
	if primary.Len() != reference.Len() {
		return nil, apperrors.NewAlignmentError(
			fmt.Sprintf("cannot estimate from %d reference rows for %d rows", reference.Len(), primary.Len()),
		)
	}
	out := primary.Clone()

	target := out.ColumnIndex(EndColumn(year))
	refTarget := reference.ColumnIndex(EndColumn(year))
	if target < 0 || refTarget < 0 {
		return out, nil
	}

	for i, row := range out.Rows {
		if !row[target].IsNull() {
			continue
		}
		var sum float64
		var n int
		for _, y := range []int{year - 1, year + 1} {
			r := Ratio(out.Get(i, EndColumn(y)), reference.Get(i, EndColumn(y)))
			if v, ok := r.Float(); ok {
				sum += v
				n++
			}
		}
		refValue, ok := reference.Rows[i][refTarget].Float()
		if n == 0 || !ok {
			continue
		}
		row[target] = Number(sum / float64(n) * refValue)
	}

	for _, y := range []int{year, year + 1} {
		mid := out.ColumnIndex(MidColumn(y))
		if mid < 0 {
			continue
		}
		end, prev := out.ColumnIndex(EndColumn(y)), out.ColumnIndex(EndColumn(y-1))
		for _, row := range out.Rows {
			if end < 0 || prev < 0 {
				row[mid] = Null()
				continue
			}
			row[mid] = Mean(row[end], row[prev])
		}
	}
	return out, nil
}

// SumAligned adds two aligned tables. Every end and mid column becomes
// a + b; every other column is copied from a.
func SumAligned(a, b *Table) (*Table, error) {
	if a.Len() != b.Len() {
		return nil, apperrors.NewAlignmentError(
			fmt.Sprintf("cannot sum %d rows with %d rows", a.Len(), b.Len()),
		)
	}
	for i := range a.Rows {
		if a.Key(i) != b.Key(i) {
			return nil, apperrors.NewAlignmentError("rows are not aligned").
				WithContext("row", i).
				WithContext("key_a", a.Key(i)).
				WithContext("key_b", b.Key(i))
		}
	}

	out := a.Clone()
	for j, name := range a.Columns {
		if _, _, ok := ParseSeriesColumn(name); !ok {
			continue
		}
		bj := b.ColumnIndex(name)
		if bj < 0 {
			return nil, apperrors.NewAlignmentError("column missing from second table").WithContext("column", name)
		}
		for i, row := range out.Rows {
			row[j] = Add(a.Rows[i][j], b.Rows[i][bj])
		}
	}
	return out, nil
}

// Add sums two cells, null when either is missing
func Add(a, b Cell) Cell {
	av, aok := a.Float()
	bv, bok := b.Float()
	if !aok || !bok {
		return Null()
	}
	return Number(av + bv)
}
