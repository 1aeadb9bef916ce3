// Package shared holds helpers used by more than one package.
//
// The testutil subpackage carries the test kit: a log capturing slog
// handler, spreadsheet payload builders and a scripted fedstat.Source.
package shared
