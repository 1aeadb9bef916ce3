package fedstat

import (
	"context"
	"strings"
)

// DefaultFormat is the data format requested when none is given
const DefaultFormat = "excel"

// TableRequest describes one data download
type TableRequest struct {
	IndicatorID     string
	Format          string
	LineObjectIDs   []string
	ColumnObjectIDs []string
	FilterIDs       []string
}

// Payload is a raw data response
type Payload struct {
	Data        []byte
	ContentType string
}

// Source fetches indicator configuration pages and data tables. Failed or
// non-success fetches are reported as transport errors and never retried.
type Source interface {
	FetchConfig(ctx context.Context, indicatorID string) (string, error)
	FetchTable(ctx context.Context, req TableRequest) (*Payload, error)
}

// formatMatches reports whether a declared content type carries the
// requested data format
func formatMatches(format, contentType string) bool {
	ct := strings.ToLower(contentType)
	switch strings.ToLower(format) {
	case "excel":
		return strings.Contains(ct, "excel") || strings.Contains(ct, "spreadsheetml")
	default:
		return strings.Contains(ct, strings.ToLower(format))
	}
}

// parseableFormat reports whether the pipeline can decode a data format
func parseableFormat(format string) bool {
	return strings.EqualFold(format, "excel")
}
