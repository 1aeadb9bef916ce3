// Package storage persists processed indicator tables in SQLite.
//
// Each table is written to its own SQL table, replacing any previous copy.
// Label columns are stored as TEXT and year series as REAL with NULL for
// missing values. A catalog table records what was written and when.
package storage
