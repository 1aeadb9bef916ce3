package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fedstatcli/internal/dataprocessing"
	apperrors "fedstatcli/internal/errors"
)

const catalogTable = "fedstat_tables"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// TableInfo describes one stored table
type TableInfo struct {
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite database holding processed tables
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open sqlite database", err).WithContext("path", path)
	}
	// a single connection keeps ":memory:" databases consistent
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: slog.Default().With(slog.String("component", "storage")),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStorageError("sqlite database is unreachable", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+catalogTable+` (
		name TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return apperrors.NewStorageError("failed to create catalog table", err)
	}
	return nil
}

// ValidateTableName reports whether name can be used as a table name
func ValidateTableName(name string) error {
	if !tableNameRe.MatchString(name) || strings.EqualFold(name, catalogTable) {
		return apperrors.NewAppValidationError(fmt.Sprintf("invalid table name %q", name))
	}
	return nil
}

// WriteTable replaces the named table with t in a single transaction. source
// is free text recorded in the catalog, usually the indicator ids.
func (s *Store) WriteTable(ctx context.Context, name, source string, t *dataprocessing.Table) error {
	if err := ValidateTableName(name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	defs := make([]string, len(t.Columns))
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
		defs[i] = cols[i] + " " + columnType(t, i)
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(name)); err != nil {
		return apperrors.NewStorageError("failed to drop table", err).WithContext("table", name)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(name)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return apperrors.NewStorageError("failed to create table", err).WithContext("table", name)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(name)+` (`+strings.Join(cols, ", ")+`) VALUES (`+ph+`)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare insert", err).WithContext("table", name)
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		args := make([]any, len(t.Columns))
		for j := range t.Columns {
			if j < len(r) {
				args[j] = r[j].Value()
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return apperrors.NewStorageError("failed to insert row", err).
				WithContext("table", name).
				WithContext("row", i)
		}
	}

	if len(t.Columns) > 0 {
		idx := fmt.Sprintf(`CREATE INDEX %s ON %s(%s)`, quoteIdent("idx_"+name+"_key"), quoteIdent(name), cols[0])
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return apperrors.NewStorageError("failed to create index", err).WithContext("table", name)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO `+catalogTable+` (name, source, row_count, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET source = excluded.source, row_count = excluded.row_count, created_at = excluded.created_at`,
		name, source, t.Len(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return apperrors.NewStorageError("failed to update catalog", err).WithContext("table", name)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit table", err).WithContext("table", name)
	}

	s.logger.InfoContext(ctx, "Table stored",
		slog.String("table", name),
		slog.String("source", source),
		slog.Int("rows", t.Len()))
	return nil
}

// ReadTable loads a stored table back, keeping column and row order
func (s *Store) ReadTable(ctx context.Context, name string) (*dataprocessing.Table, error) {
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+catalogTable+` WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query catalog", err)
	}
	if exists == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("table %s", name))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(name)+` ORDER BY rowid`)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read table", err).WithContext("table", name)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read columns", err).WithContext("table", name)
	}

	out := dataprocessing.NewTable(columns...)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.NewStorageError("failed to scan row", err).WithContext("table", name)
		}
		row := make(dataprocessing.Row, len(columns))
		for i, v := range values {
			row[i] = toCell(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to iterate rows", err).WithContext("table", name)
	}
	return out, nil
}

// Tables lists stored tables by name
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, source, row_count, created_at FROM `+catalogTable+` ORDER BY name`)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list tables", err)
	}
	defer rows.Close()

	var out []TableInfo
	for rows.Next() {
		var info TableInfo
		var created string
		if err := rows.Scan(&info.Name, &info.Source, &info.Rows, &created); err != nil {
			return nil, apperrors.NewStorageError("failed to scan catalog row", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to iterate catalog", err)
	}
	return out, nil
}

// columnType stores series and year columns as REAL and everything else as
// TEXT
func columnType(t *dataprocessing.Table, col int) string {
	name := t.Columns[col]
	if _, _, ok := dataprocessing.ParseSeriesColumn(name); ok || dataprocessing.IsYearColumn(name) {
		return "REAL"
	}
	for _, r := range t.Rows {
		if col < len(r) && r[col].Kind == dataprocessing.CellText {
			return "TEXT"
		}
	}
	for _, r := range t.Rows {
		if col < len(r) && r[col].Kind == dataprocessing.CellNumber {
			return "REAL"
		}
	}
	return "TEXT"
}

func toCell(v any) dataprocessing.Cell {
	switch x := v.(type) {
	case nil:
		return dataprocessing.Null()
	case float64:
		return dataprocessing.Number(x)
	case int64:
		return dataprocessing.Number(float64(x))
	case string:
		return dataprocessing.Text(x)
	case []byte:
		return dataprocessing.Text(string(x))
	default:
		return dataprocessing.Text(fmt.Sprint(x))
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
