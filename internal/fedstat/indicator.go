package fedstat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fedstatcli/internal/config"
	"fedstatcli/internal/dataprocessing"
	apperrors "fedstatcli/internal/errors"
	"fedstatcli/internal/infrastructure"
)

// LoadOptions selects what to download
type LoadOptions struct {
	// Filters are selection tokens; empty selects every value
	Filters []string
	// Format is the requested data format, "excel" when empty
	Format string
}

// Indicator is one fedstat indicator. It is safe for concurrent use.
type Indicator struct {
	id        string
	src       Source
	layout    Layout
	headerRow int
	logger    *slog.Logger
	metrics   *infrastructure.BusinessMetrics
	tracer    trace.Tracer

	mu      sync.Mutex
	catalog *Catalog
	raw     *dataprocessing.Table
}

// Option customizes an Indicator
type Option func(*Indicator)

// WithLayout overrides the row and column category assignment
func WithLayout(l Layout) Option {
	return func(ind *Indicator) { ind.layout = l }
}

// WithHeaderRow sets the 0-based header row of downloaded sheets
func WithHeaderRow(row int) Option {
	return func(ind *Indicator) { ind.headerRow = row }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(ind *Indicator) { ind.logger = l }
}

// WithMetrics records pipeline step metrics
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(ind *Indicator) { ind.metrics = m }
}

// OptionsFromConfig maps the source configuration to indicator options
func OptionsFromConfig(cfg config.FedStatConfig) []Option {
	return []Option{
		WithLayout(Layout{
			ColumnObjectIDs: append([]string(nil), cfg.ColumnObjectIDs...),
			LineObjectIDs:   append([]string(nil), cfg.LineObjectIDs...),
		}),
		WithHeaderRow(cfg.HeaderRow),
	}
}

// New creates an indicator. Nothing is fetched until first use.
func New(id string, src Source, opts ...Option) *Indicator {
	ind := &Indicator{
		id:        id,
		src:       src,
		layout:    DefaultLayout(),
		headerRow: dataprocessing.DefaultHeaderRow,
		tracer:    infrastructure.Tracer(),
	}
	for _, opt := range opts {
		opt(ind)
	}
	if ind.logger == nil {
		ind.logger = infrastructure.GetLogger()
	}
	ind.logger = ind.logger.With(
		slog.String("component", "indicator"),
		slog.String("indicator_id", id),
	)
	return ind
}

// ID returns the indicator id
func (ind *Indicator) ID() string {
	return ind.id
}

// Catalog returns the filter catalog, fetching it on first use. Failures are
// not cached.
func (ind *Indicator) Catalog(ctx context.Context) (*Catalog, error) {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.loadCatalog(ctx)
}

func (ind *Indicator) loadCatalog(ctx context.Context) (*Catalog, error) {
	if ind.catalog != nil {
		return ind.catalog, nil
	}

	ctx, span := ind.tracer.Start(ctx, "fedstat.catalog",
		trace.WithAttributes(attribute.String("indicator.id", ind.id)))
	defer span.End()

	blob, err := ind.src.FetchConfig(ctx, ind.id)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("indicator %s: %w", ind.id, err)
	}
	catalog, err := ParseCatalog(blob)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("indicator %s: %w", ind.id, err)
	}

	ind.logger.InfoContext(ctx, "Filter catalog loaded",
		slog.String("title", catalog.Title()),
		slog.Int("categories", len(catalog.Categories())))
	ind.catalog = catalog
	return catalog, nil
}

// Title returns the indicator title
func (ind *Indicator) Title(ctx context.Context) (string, error) {
	c, err := ind.Catalog(ctx)
	if err != nil {
		return "", err
	}
	return c.Title(), nil
}

// FilterCodes lists the selectable categories with their titles
func (ind *Indicator) FilterCodes(ctx context.Context) ([]Label, error) {
	c, err := ind.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.FilterCodes(), nil
}

// AllFilterTokens selects every value of every category
func (ind *Indicator) AllFilterTokens(ctx context.Context) ([]string, error) {
	c, err := ind.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.AllFilterTokens(), nil
}

// FilterCategories maps each category to its selection tokens
func (ind *Indicator) FilterCategories(ctx context.Context) ([]TokenGroup, error) {
	c, err := ind.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.FilterCategories(), nil
}

// LoadRaw downloads the data table with repaired headers.
//
// The first successful download is cached for the lifetime of the
// Indicator and returned by every later call, even when different filters
// or another format are requested. There is no way to refresh it; create a
// new Indicator instead. The returned table is a copy.
func (ind *Indicator) LoadRaw(ctx context.Context, opts LoadOptions) (*dataprocessing.Table, error) {
	ind.mu.Lock()
	defer ind.mu.Unlock()

	if ind.raw != nil {
		return ind.raw.Clone(), nil
	}

	format := opts.Format
	if format == "" {
		format = DefaultFormat
	}
	if !parseableFormat(format) {
		return nil, apperrors.NewFormatError(fmt.Sprintf("data format %q is not supported", format), nil).
			WithContext("indicator_id", ind.id)
	}

	catalog, err := ind.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	filters := opts.Filters
	if len(filters) == 0 {
		filters = catalog.AllFilterTokens()
	}
	layout := ind.layout.ForCatalog(catalog)

	ctx, span := ind.tracer.Start(ctx, "fedstat.load",
		trace.WithAttributes(
			attribute.String("indicator.id", ind.id),
			attribute.Int("filters", len(filters)),
		))
	defer span.End()

	payload, err := ind.src.FetchTable(ctx, TableRequest{
		IndicatorID:     ind.id,
		Format:          format,
		LineObjectIDs:   layout.LineObjectIDs,
		ColumnObjectIDs: layout.ColumnObjectIDs,
		FilterIDs:       filters,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("indicator %s: %w", ind.id, err)
	}

	if !formatMatches(format, payload.ContentType) {
		err := apperrors.NewFormatError(
			fmt.Sprintf("response is not %s data", format), nil).
			WithContext("content_type", payload.ContentType).
			WithContext("indicator_id", ind.id)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	table, err := dataprocessing.ParseSpreadsheet(payload.Data, dataprocessing.ParseOptions{
		HeaderRow:  ind.headerRow,
		RowHeaders: layout.RowHeaders(catalog),
		Logger:     ind.logger,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("indicator %s: %w", ind.id, err)
	}

	ind.logger.InfoContext(ctx, "Raw table loaded",
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Int("bytes", len(payload.Data)))
	ind.raw = table
	return table.Clone(), nil
}
