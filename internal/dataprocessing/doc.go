// Package dataprocessing turns raw demographic spreadsheets into normalized
// tables.
//
// A Table holds label columns (region, age group, settlement type) followed
// by yearly values. The normalization steps are pure functions that return
// new tables:
//
//	raw → Clean → RemoveDistricts → AggregateDistricts → Interpolate
//
// Interpolate reshapes year columns into "{Y}end" and "{Y}mid" columns.
// Two normalized tables can then be reconciled, aligned, gap-filled with
// EstimateMissing and summed with SumAligned.
//
// ParseSpreadsheet reads xlsx and legacy xls payloads and repairs blank
// header cells.
package dataprocessing
