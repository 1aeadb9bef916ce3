// Package exporter writes processed indicator tables to CSV and XLSX.
//
// CSVWriter is the low level writer: headers plus string records, with an
// optional UTF-8 BOM so Excel opens Cyrillic text correctly. TableExporter
// renders dataprocessing tables through it, or through excelize for XLSX,
// either to files under the exports directory or to any io.Writer.
//
//	exp := exporter.NewTableExporter(paths, true)
//	path, err := exp.Export(ctx, "population.xlsx", table)
package exporter
