// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fedstatcli/internal/fedstat"
)

// ContentTypeXLS is what fedstat.ru declares for its excel exports
const ContentTypeXLS = "application/vnd.ms-excel"

// SamplePage is an indicator page with one region, one age and two years
const SamplePage = `<html><body><script>
grid = new FGrid({
	filters: {0: {title: 'Показатель', values: {0: {title: 'Число родившихся'}}},
		57831: {title: 'Субъект', values: {1: {title: 'Алтайский край'}}},
		58335: {title: 'Возраст', values: {10: {title: '0 лет'}}},
		57956: {title: 'Тип поселения', values: {1: {title: 'Все население'}}},
		30611: {title: 'Год', values: {951404: {title: '2020'}, 951405: {title: '2021'}}},
		33560: {title: 'Период', values: {1558883: {title: 'значение показателя за год'}}},
	},
	left_columns: [57831, 58335]
});
</script></body></html>`

// Workbook builds an xlsx payload the way fedstat lays out exports: a
// title in A1 and the header at the 0-based row headerRow. rows[0] is the
// header, nil cells are left empty.
func Workbook(t *testing.T, title string, headerRow int, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", title))

	for i, r := range rows {
		for j, v := range r {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, headerRow+1+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// SampleWorkbook matches SamplePage: Алтайский край, 0 лет, 100 in 2020 and
// 110 in 2021
func SampleWorkbook(t *testing.T) []byte {
	return Workbook(t, "Число родившихся", 4, [][]interface{}{
		{nil, nil, nil, "2020", "2021"},
		{"Алтайский край", "0 лет", "Все население", 100, 110},
	})
}

// StubSource is a scripted fedstat.Source that counts its calls
type StubSource struct {
	Page        string
	Data        []byte
	ContentType string
	ConfigErr   error
	TableErr    error

	mu       sync.Mutex
	requests []fedstat.TableRequest
}

// NewStubSource serves SamplePage and SampleWorkbook
func NewStubSource(t *testing.T) *StubSource {
	return &StubSource{Page: SamplePage, Data: SampleWorkbook(t), ContentType: ContentTypeXLS}
}

// FetchConfig implements fedstat.Source
func (s *StubSource) FetchConfig(ctx context.Context, indicatorID string) (string, error) {
	if s.ConfigErr != nil {
		return "", s.ConfigErr
	}
	return s.Page, nil
}

// FetchTable implements fedstat.Source
func (s *StubSource) FetchTable(ctx context.Context, req fedstat.TableRequest) (*fedstat.Payload, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.TableErr != nil {
		return nil, s.TableErr
	}
	return &fedstat.Payload{Data: s.Data, ContentType: s.ContentType}, nil
}

// Requests returns the table requests received so far
func (s *StubSource) Requests() []fedstat.TableRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fedstat.TableRequest(nil), s.requests...)
}
