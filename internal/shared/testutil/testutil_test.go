package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fedstatcli/internal/fedstat"
)

func TestCaptureHandler(t *testing.T) {
	logger, h := NewTestLogger(nil)

	logger.With(slog.String("component", "loader")).Info("table loaded", slog.Int("rows", 3))
	logger.WithGroup("http").Warn("slow request", slog.Int("status", 200))
	logger.Error("boom")

	records := h.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "loader", records[0].Attrs["component"])
	assert.Equal(t, int64(3), records[0].Attrs["rows"])
	assert.Equal(t, int64(200), records[1].Attrs["http.status"])

	r, ok := h.Find("slow")
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, r.Level)

	_, ok = h.Find("missing")
	assert.False(t, ok)

	AssertLogContains(t, h, slog.LevelError, "boom")
}

func TestSampleWorkbookLayout(t *testing.T) {
	f, err := excelize.OpenReader(bytes.NewReader(SampleWorkbook(t)))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Число родившихся", title)

	year, err := f.GetCellValue(sheet, "D5")
	require.NoError(t, err)
	assert.Equal(t, "2020", year)

	region, err := f.GetCellValue(sheet, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Алтайский край", region)
}

func TestStubSourceRecordsRequests(t *testing.T) {
	src := NewStubSource(t)

	page, err := src.FetchConfig(context.Background(), "31548")
	require.NoError(t, err)
	assert.Contains(t, page, "left_columns")

	payload, err := src.FetchTable(context.Background(), fedstat.TableRequest{IndicatorID: "31548", Format: "excel"})
	require.NoError(t, err)
	assert.Equal(t, ContentTypeXLS, payload.ContentType)
	require.Len(t, src.Requests(), 1)
	assert.Equal(t, "31548", src.Requests()[0].IndicatorID)
}
