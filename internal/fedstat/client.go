package fedstat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"fedstatcli/internal/config"
	apperrors "fedstatcli/internal/errors"
	"fedstatcli/internal/infrastructure"
)

const (
	configPath = "/indicator/%s"
	dataPath   = "/indicator/data.do"

	// DefaultMaxBodySize bounds a single response; whole-country exports stay
	// far below it
	DefaultMaxBodySize = 256 << 20
)

// HTTPSource talks to the statistics service over plain HTTP
type HTTPSource struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *infrastructure.BusinessMetrics
	tracer     trace.Tracer
	maxBody    int64
}

// HTTPSourceOption customizes an HTTPSource
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) { s.httpClient = c }
}

// WithSourceLogger sets the logger
func WithSourceLogger(l *slog.Logger) HTTPSourceOption {
	return func(s *HTTPSource) { s.logger = l }
}

// WithMaxBodySize caps the bytes accepted from one response
func WithMaxBodySize(n int64) HTTPSourceOption {
	return func(s *HTTPSource) { s.maxBody = n }
}

// WithSourceMetrics records upstream request metrics
func WithSourceMetrics(m *infrastructure.BusinessMetrics) HTTPSourceOption {
	return func(s *HTTPSource) { s.metrics = m }
}

// NewHTTPSource creates a source for the configured service. One limiter is
// shared by every call made through the returned source.
func NewHTTPSource(cfg config.FedStatConfig, opts ...HTTPSourceOption) *HTTPSource {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	s := &HTTPSource{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(limit, burst),
		tracer:     infrastructure.Tracer(),
		maxBody:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = infrastructure.GetLogger()
	}
	s.logger = s.logger.With(slog.String("component", "fedstat_http"))
	return s
}

// FetchConfig downloads the indicator page that embeds the filter catalog
func (s *HTTPSource) FetchConfig(ctx context.Context, indicatorID string) (string, error) {
	endpoint := s.baseURL + fmt.Sprintf(configPath, url.PathEscape(indicatorID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", apperrors.NewTransportError("failed to create config request", err)
	}

	body, _, err := s.do(ctx, "config", req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchTable posts the data request. Category lists and filter tokens are
// sent as repeated form fields.
func (s *HTTPSource) FetchTable(ctx context.Context, tr TableRequest) (*Payload, error) {
	format := tr.Format
	if format == "" {
		format = DefaultFormat
	}

	query := url.Values{}
	query.Set("format", format)
	query.Set("id", tr.IndicatorID)
	endpoint := s.baseURL + dataPath + "?" + query.Encode()

	form := url.Values{}
	for _, id := range tr.LineObjectIDs {
		form.Add("lineObjectIds", id)
	}
	for _, id := range tr.ColumnObjectIDs {
		form.Add("columnObjectIds", id)
	}
	for _, id := range tr.FilterIDs {
		form.Add("selectedFilterIds", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewTransportError("failed to create data request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, contentType, err := s.do(ctx, "data", req)
	if err != nil {
		return nil, err
	}
	return &Payload{Data: body, ContentType: contentType}, nil
}

func (s *HTTPSource) do(ctx context.Context, endpoint string, req *http.Request) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "fedstat.http."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
		))
	defer span.End()

	if err := s.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", apperrors.NewTransportError("request cancelled while throttled", err)
	}

	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "Upstream request failed",
			slog.String("endpoint", endpoint),
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()))
		return nil, "", apperrors.NewTransportError(fmt.Sprintf("%s request failed", endpoint), err).
			WithContext("url", req.URL.String())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	duration := time.Since(start)
	infrastructure.RecordUpstreamRequest(ctx, s.metrics, endpoint, resp.StatusCode, int64(len(body)), duration)
	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int("http.response_size", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		s.logger.WarnContext(ctx, "Upstream returned non-success status",
			slog.String("endpoint", endpoint),
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode))
		return nil, "", apperrors.NewHTTPStatusError(req.URL.String(), resp.StatusCode, resp.Status)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", apperrors.NewTransportError(fmt.Sprintf("failed to read %s response", endpoint), err)
	}
	if int64(len(body)) > s.maxBody {
		span.SetStatus(codes.Error, "response too large")
		s.logger.WarnContext(ctx, "Upstream response exceeds size limit",
			slog.String("endpoint", endpoint),
			slog.Int64("limit", s.maxBody))
		return nil, "", apperrors.NewTransportError(fmt.Sprintf("%s response exceeds %d bytes", endpoint, s.maxBody), nil).
			WithContext("url", req.URL.String())
	}

	s.logger.DebugContext(ctx, "Upstream request completed",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", duration))

	return body, resp.Header.Get("Content-Type"), nil
}

// NewSource builds the configured Source: a BrowserSource when page
// rendering is enabled, a plain HTTPSource otherwise
func NewSource(cfg config.FedStatConfig, opts ...HTTPSourceOption) Source {
	httpSource := NewHTTPSource(cfg, opts...)
	if cfg.Render {
		return NewBrowserSource(httpSource, cfg.Headless, cfg.RequestTimeout)
	}
	return httpSource
}
