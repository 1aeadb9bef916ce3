package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"fedstatcli/internal/config"
	"fedstatcli/internal/dataprocessing"
	apperrors "fedstatcli/internal/errors"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet that holds exported tables
const SheetName = "data"

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case config.ExtCSV:
		return FormatCSV, nil
	case config.ExtXLSX:
		return FormatXLSX, nil
	default:
		return "", apperrors.NewAppValidationError(
			fmt.Sprintf("unsupported export file %q, expected %s or %s", path, config.ExtCSV, config.ExtXLSX))
	}
}

// TableExporter writes dataprocessing tables to files or streams
type TableExporter struct {
	csv       *CSVWriter
	paths     *config.Paths
	bomPrefix bool
	logger    *slog.Logger
}

// NewTableExporter creates an exporter writing relative paths under the
// exports directory. bomPrefix controls the UTF-8 BOM of CSV output.
func NewTableExporter(paths *config.Paths, bomPrefix bool) *TableExporter {
	return &TableExporter{
		csv:       NewCSVWriter(paths),
		paths:     paths,
		bomPrefix: bomPrefix,
		logger:    slog.Default().With(slog.String("component", "exporter")),
	}
}

// Export writes the table to path in the format its extension names and
// returns the resolved path
func (e *TableExporter) Export(ctx context.Context, path string, t *dataprocessing.Table) (string, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return "", err
	}

	fullPath := e.csv.resolvePath(path)
	switch format {
	case FormatCSV:
		err = e.csv.WriteCSV(fullPath, WriteOptions{
			Headers:   t.Columns,
			Records:   t.Records(),
			BOMPrefix: e.bomPrefix,
		})
	case FormatXLSX:
		err = e.writeXLSXFile(fullPath, t)
	}
	if err != nil {
		return "", apperrors.NewStorageError("failed to export table", err).WithContext("path", fullPath)
	}

	e.logger.InfoContext(ctx, "Table exported",
		slog.String("path", fullPath),
		slog.String("format", string(format)),
		slog.Int("rows", t.Len()))
	return fullPath, nil
}

// WriteTo streams the table to out in the given format
func (e *TableExporter) WriteTo(out io.Writer, format Format, t *dataprocessing.Table) error {
	switch format {
	case FormatCSV:
		return WriteTableCSV(out, t, e.bomPrefix)
	case FormatXLSX:
		return WriteTableXLSX(out, t)
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
}

func (e *TableExporter) writeXLSXFile(path string, t *dataprocessing.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteTableXLSX(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteTableCSV writes the table as CSV. Null cells become empty fields.
func WriteTableCSV(out io.Writer, t *dataprocessing.Table, bomPrefix bool) error {
	return writeCSV(out, WriteOptions{
		Headers:   t.Columns,
		Records:   t.Records(),
		BOMPrefix: bomPrefix,
	})
}

// WriteTableXLSX writes the table as a single-sheet workbook. Numbers are
// stored as numeric cells and nulls are left empty.
func WriteTableXLSX(out io.Writer, t *dataprocessing.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range t.Rows {
		values := make([]interface{}, len(r))
		for j, c := range r {
			values[j] = c.Value()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
