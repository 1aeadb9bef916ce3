package fedstat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedstatcli/internal/dataprocessing"
	apperrors "fedstatcli/internal/errors"
)

func newTestIndicator(src Source, opts ...Option) *Indicator {
	return New("31548", src, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func TestIndicatorCatalogFetchedOnce(t *testing.T) {
	src := &fakeSource{page: indicatorPage}
	ind := newTestIndicator(src)
	ctx := context.Background()

	title, err := ind.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Численность постоянного населения - мужчин на 1 января", title)

	codes, err := ind.FilterCodes(ctx)
	require.NoError(t, err)
	assert.Len(t, codes, 5)

	tokens, err := ind.AllFilterTokens(ctx)
	require.NoError(t, err)
	assert.Len(t, tokens, 10)

	groups, err := ind.FilterCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 5)

	assert.Equal(t, 1, src.configCalls)
	assert.Equal(t, "31548", ind.ID())
}

func TestIndicatorCatalogFailureNotCached(t *testing.T) {
	src := &fakeSource{configErr: apperrors.NewTransportError("down", nil)}
	ind := newTestIndicator(src)

	_, err := ind.Title(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	src.configErr = nil
	src.page = indicatorPage
	title, err := ind.Title(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, title)
	assert.Equal(t, 2, src.configCalls)
}

func TestIndicatorCatalogParseError(t *testing.T) {
	src := &fakeSource{page: "<html><body>maintenance</body></html>"}
	ind := newTestIndicator(src)

	_, err := ind.FilterCodes(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrParse)
}

func TestLoadRawRepairsHeaders(t *testing.T) {
	src := &fakeSource{
		page:    indicatorPage,
		payload: &Payload{Data: populationSheet(t), ContentType: excelContentType},
	}
	ind := newTestIndicator(src)

	table, err := ind.LoadRaw(context.Background(), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Субъект Российской Федерации", "Возраст", "Тип поселения", "2020", "2021", "2022",
	}, table.Columns)
	assert.Equal(t, 7, table.Len())
	assert.Equal(t, " Алтайский край ", table.Rows[1][0].String())

	require.Len(t, src.requests, 1)
	req := src.requests[0]
	assert.Equal(t, "31548", req.IndicatorID)
	assert.Equal(t, DefaultFormat, req.Format)
	assert.Equal(t, []string{"57831", "58335", "57956"}, req.LineObjectIDs)
	assert.Equal(t, []string{"30611", "33560", "3"}, req.ColumnObjectIDs)
	assert.Len(t, req.FilterIDs, 10)
}

func TestLoadRawCachesFirstDownload(t *testing.T) {
	src := &fakeSource{
		page:    indicatorPage,
		payload: &Payload{Data: populationSheet(t), ContentType: excelContentType},
	}
	ind := newTestIndicator(src)
	ctx := context.Background()

	first, err := ind.LoadRaw(ctx, LoadOptions{Filters: []string{"57831_1"}})
	require.NoError(t, err)

	// a different selection still returns the first download
	second, err := ind.LoadRaw(ctx, LoadOptions{Filters: []string{"57831_2", "58335_11"}})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.tableCalls)
	assert.Equal(t, []string{"57831_1"}, src.requests[0].FilterIDs)

	// callers get copies
	second.Rows[0][0] = dataprocessing.Text("changed")
	third, err := ind.LoadRaw(ctx, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.Rows[0][0], third.Rows[0][0])
}

func TestLoadRawContentTypeMismatch(t *testing.T) {
	src := &fakeSource{
		page:    indicatorPage,
		payload: &Payload{Data: []byte("<html>error</html>"), ContentType: "text/html; charset=utf-8"},
	}
	ind := newTestIndicator(src)

	_, err := ind.LoadRaw(context.Background(), LoadOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFormat)

	// the failure is not cached
	src.payload = &Payload{Data: populationSheet(t), ContentType: excelContentType}
	_, err = ind.LoadRaw(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.tableCalls)
}

func TestLoadRawUnsupportedFormat(t *testing.T) {
	src := &fakeSource{page: indicatorPage}
	ind := newTestIndicator(src)

	_, err := ind.LoadRaw(context.Background(), LoadOptions{Format: "sdmx"})
	assert.ErrorIs(t, err, apperrors.ErrFormat)
	assert.Zero(t, src.tableCalls)
	assert.Zero(t, src.configCalls)
}

func TestLoadRawTransportError(t *testing.T) {
	src := &fakeSource{page: indicatorPage, tableErr: apperrors.NewTransportError("reset", errors.New("connection reset"))}
	ind := newTestIndicator(src)

	_, err := ind.LoadRaw(context.Background(), LoadOptions{})
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestLoadRawCustomLayout(t *testing.T) {
	src := &fakeSource{
		page:    indicatorPage,
		payload: &Payload{Data: populationSheet(t), ContentType: excelContentType},
	}
	ind := newTestIndicator(src,
		WithLayout(Layout{ColumnObjectIDs: []string{"30611"}, LineObjectIDs: []string{"57831", "58335", "57956", "99999"}}),
	)

	_, err := ind.LoadRaw(context.Background(), LoadOptions{})
	require.NoError(t, err)

	req := src.requests[0]
	assert.Equal(t, []string{"57831", "58335", "57956", "99999", "33560"}, req.LineObjectIDs)
	assert.Equal(t, []string{"30611"}, req.ColumnObjectIDs)
}

func TestLayoutRowHeaders(t *testing.T) {
	c, err := ParseCatalog(indicatorPage)
	require.NoError(t, err)

	l := DefaultLayout().ForCatalog(c)
	assert.Equal(t, []string{"Субъект Российской Федерации", "Возраст", "Тип поселения"}, l.RowHeaders(c))

	unknown := Layout{LineObjectIDs: []string{"57831", "424242"}}
	assert.Equal(t, []string{"Субъект Российской Федерации", "424242"}, unknown.RowHeaders(c))
	assert.Equal(t, []string{"57831", "424242"}, unknown.RowHeaders(nil))
}
