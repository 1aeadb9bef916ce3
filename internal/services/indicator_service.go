package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fedstatcli/internal/dataprocessing"
	"fedstatcli/internal/fedstat"
	"fedstatcli/internal/infrastructure"
	"fedstatcli/internal/storage"
)

// Output formats of data requests
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DataRequest asks for one processed indicator
type DataRequest struct {
	IndicatorID string   `json:"id" validate:"required,indicator"`
	Filters     []string `json:"filter" validate:"max=5000,dive,filter_token"`
	Format      string   `json:"format" validate:"omitempty,oneof=json csv xlsx"`
}

// CombineRequest asks for the sum of two indicators
type CombineRequest struct {
	First        string   `json:"first" validate:"required,indicator"`
	Second       string   `json:"second" validate:"required,indicator,nefield=First"`
	EstimateYear int      `json:"estimate_year" validate:"omitempty,gte=1990,lte=2100"`
	Filters      []string `json:"filter" validate:"max=5000,dive,filter_token"`
	Format       string   `json:"format" validate:"omitempty,oneof=json csv xlsx"`
}

// IndicatorInfo describes an indicator and its filters
type IndicatorInfo struct {
	ID         string                   `json:"id"`
	Title      string                   `json:"title"`
	Categories []fedstat.FilterCategory `json:"categories"`
}

// IndicatorService runs indicator requests against a Source
type IndicatorService struct {
	source     fedstat.Source
	indOptions []fedstat.Option
	validator  *Validator
	store      *storage.Store
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// ServiceOption customizes an IndicatorService
type ServiceOption func(*IndicatorService)

// WithIndicatorOptions applies options to every Indicator the service builds
func WithIndicatorOptions(opts ...fedstat.Option) ServiceOption {
	return func(s *IndicatorService) { s.indOptions = append(s.indOptions, opts...) }
}

// WithStore enables persisting results to SQLite
func WithStore(store *storage.Store) ServiceOption {
	return func(s *IndicatorService) { s.store = store }
}

// WithServiceMetrics records pipeline metrics
func WithServiceMetrics(m *infrastructure.BusinessMetrics) ServiceOption {
	return func(s *IndicatorService) { s.metrics = m }
}

// WithServiceLogger sets the logger
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *IndicatorService) { s.logger = l }
}

// NewIndicatorService creates the service
func NewIndicatorService(source fedstat.Source, opts ...ServiceOption) *IndicatorService {
	s := &IndicatorService{
		source:    source,
		validator: NewValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = infrastructure.GetLogger()
	}
	s.logger = infrastructure.WithComponent(s.logger, "indicator_service")
	return s
}

// indicator builds a fresh Indicator so every request sees its own filters
func (s *IndicatorService) indicator(id string) *fedstat.Indicator {
	opts := append([]fedstat.Option{
		fedstat.WithLogger(s.logger),
		fedstat.WithMetrics(s.metrics),
	}, s.indOptions...)
	return fedstat.New(id, s.source, opts...)
}

// Describe returns the title and filter catalog of an indicator
func (s *IndicatorService) Describe(ctx context.Context, id string) (*IndicatorInfo, error) {
	if err := s.validator.Struct(DataRequest{IndicatorID: id}); err != nil {
		return nil, err
	}

	catalog, err := s.indicator(id).Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &IndicatorInfo{
		ID:         id,
		Title:      catalog.Title(),
		Categories: catalog.Categories(),
	}, nil
}

// Processed runs the full pipeline for one indicator
func (s *IndicatorService) Processed(ctx context.Context, req DataRequest) (*dataprocessing.Table, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	start := time.Now()
	table, err := s.indicator(req.IndicatorID).ProcessedData(ctx, fedstat.LoadOptions{Filters: req.Filters})
	if err != nil {
		s.logger.WarnContext(ctx, "Indicator processing failed",
			slog.String("indicator_id", req.IndicatorID),
			slog.String("error", err.Error()))
		return nil, err
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"indicator.id": req.IndicatorID,
		"table.rows":   table.Len(),
	})
	s.logger.InfoContext(ctx, "Indicator processed",
		slog.String("indicator_id", req.IndicatorID),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

// Combined downloads both indicators concurrently and sums them. The first
// failure cancels the other download.
func (s *IndicatorService) Combined(ctx context.Context, req CombineRequest) (*dataprocessing.Table, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	start := time.Now()
	load := fedstat.LoadOptions{Filters: req.Filters}
	var first, second *dataprocessing.Table

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		first, err = s.indicator(req.First).ProcessedData(gCtx, load)
		return err
	})
	g.Go(func() error {
		var err error
		second, err = s.indicator(req.Second).ProcessedData(gCtx, load)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Indicator download failed",
			slog.String("first", req.First),
			slog.String("second", req.Second),
			slog.String("error", err.Error()))
		return nil, err
	}

	table, err := fedstat.CombineTables(ctx, first, second, req.EstimateYear)
	if err != nil {
		return nil, fmt.Errorf("combine %s and %s: %w", req.First, req.Second, err)
	}

	s.logger.InfoContext(ctx, "Indicators combined",
		slog.String("first", req.First),
		slog.String("second", req.Second),
		slog.Int("estimate_year", req.EstimateYear),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

// Save writes a table to the configured SQLite store
func (s *IndicatorService) Save(ctx context.Context, name, source string, t *dataprocessing.Table) error {
	if s.store == nil {
		return ErrStoreDisabled
	}
	return s.store.WriteTable(ctx, name, source, t)
}

// StoredTables lists the tables saved in the SQLite store
func (s *IndicatorService) StoredTables(ctx context.Context) ([]storage.TableInfo, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.Tables(ctx)
}

// StoredTable reads a saved table back from the SQLite store
func (s *IndicatorService) StoredTable(ctx context.Context, name string) (*dataprocessing.Table, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.ReadTable(ctx, name)
}
