package fedstat

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "fedstatcli/internal/errors"
	"fedstatcli/internal/infrastructure"
)

// BrowserSource renders indicator pages in headless Chrome before reading
// them. Data downloads are delegated to an HTTPSource.
type BrowserSource struct {
	*HTTPSource
	baseURL  string
	headless bool
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBrowserSource wraps data for table downloads
func NewBrowserSource(data *HTTPSource, headless bool, timeout time.Duration) *BrowserSource {
	return &BrowserSource{
		HTTPSource: data,
		baseURL:    data.baseURL,
		headless:   headless,
		timeout:    timeout,
		logger:     infrastructure.WithComponent(data.logger, "fedstat_browser"),
	}
}

// FetchConfig navigates to the indicator page, waits for the scripts to be
// present and returns the rendered document
func (b *BrowserSource) FetchConfig(ctx context.Context, indicatorID string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", b.headless))
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
		defer cancel()
	}

	pageURL := b.baseURL + fmt.Sprintf(configPath, url.PathEscape(indicatorID))
	start := time.Now()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		b.logger.ErrorContext(ctx, "Browser fetch failed",
			slog.String("url", pageURL),
			slog.String("error", err.Error()))
		return "", apperrors.NewTransportError("failed to render indicator page", err).
			WithContext("url", pageURL)
	}

	b.logger.DebugContext(ctx, "Indicator page rendered",
		slog.String("url", pageURL),
		slog.Int("bytes", len(html)),
		slog.Duration("duration", time.Since(start)))
	return html, nil
}
