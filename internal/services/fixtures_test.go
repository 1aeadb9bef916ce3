package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fedstatcli/internal/fedstat"
)

const testPage = `<script>
grid = new FGrid({
	filters: {0: {title: 'Показатель', values: {0: {title: 'Численность постоянного населения'}}},
		57831: {title: 'Субъект Российской Федерации', values: {1: {title: 'Алтайский край'}, 2: {title: 'Новосибирская область'}}},
		58335: {title: 'Возраст', values: {10: {title: '0 лет'}}},
		57956: {title: 'Тип поселения', values: {1: {title: 'Все население'}}},
		30611: {title: 'Год', values: {951404: {title: '2020'}, 951405: {title: '2021'}}},
		33560: {title: 'Период', values: {1558883: {title: 'значение показателя за год'}}},
	},
	left_columns: [57831, 58335]
});
</script>`

// testSheet has two Siberian regions with one age group and two years
func testSheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Численность постоянного населения"))

	rows := [][]interface{}{
		{nil, nil, nil, "2020", "2021"},
		{"Алтайский край", "0 лет", "Все население", 100, 110},
		{"Новосибирская область", "0 лет", "Все население", 200, 210},
	}
	for i, r := range rows {
		for j, v := range r {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, 5+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

type stubSource struct {
	mu         sync.Mutex
	page       string
	data       []byte
	tableErr   error
	tableCalls map[string]int
}

func newStubSource(t *testing.T) *stubSource {
	return &stubSource{
		page:       testPage,
		data:       testSheet(t),
		tableCalls: make(map[string]int),
	}
}

func (s *stubSource) FetchConfig(ctx context.Context, id string) (string, error) {
	return s.page, nil
}

func (s *stubSource) FetchTable(ctx context.Context, req fedstat.TableRequest) (*fedstat.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableCalls[req.IndicatorID]++
	if s.tableErr != nil {
		return nil, s.tableErr
	}
	return &fedstat.Payload{Data: s.data, ContentType: "application/vnd.ms-excel"}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
