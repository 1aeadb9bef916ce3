package fedstat

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const excelContentType = "application/vnd.ms-excel"

// indicatorPage mimics the markup of an indicator page: several scripts, the
// grid configuration in a later one, unquoted keys and single quotes.
const indicatorPage = `<!DOCTYPE html>
<html>
<head>
<script src="/js/jquery.js"></script>
<script>var counter = {id: 1, filters: 'none'};</script>
</head>
<body>
<div id="grid"></div>
<script type="text/javascript">
$(document).ready(function () {
	grid = new FGrid({
		id: 31548,
		title: 'Численность населения',
		filters: {0: {title: 'Показатель', values: {0: {title: 'Численность постоянного населения - мужчин на 1 января'}}},
			57831: {title: 'Субъект Российской Федерации', values: {1: {title: 'Алтайский край'}, 2: {title: 'Новосибирская область'}, 3: {title: "Сибирский федеральный округ"}}},
			58335: {title: 'Возраст', values: {10: {title: '0 лет'}, 11: {title: '1 год'}}},
			57956: {title: 'Тип поселения', values: {1: {title: 'Все население'}, 2: {title: 'Городское население'}}},
			30611: {title: 'Год', values: {951404: {title: '2020'}, 951405: {title: '2021'}}},
			33560: {title: 'Период', values: {1558883: {title: 'значение показателя за год'}}},
		},
		left_columns: [57831, 58335],
		top_columns: [30611, 33560]
	});
});
</script>
</body>
</html>`

// workbook builds an xlsx payload with a four row title block, the header
// row at index 4 and the given data rows
func workbook(t *testing.T, header []interface{}, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "A1", "Численность постоянного населения"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "Единица измерения: человек"))

	write := func(rowIdx int, values []interface{}) {
		for j, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, rowIdx)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	write(5, header)
	for i, r := range rows {
		write(6+i, r)
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// populationSheet has two regions, one district summary row to drop, three
// ages and three years
func populationSheet(t *testing.T) []byte {
	return workbook(t,
		[]interface{}{nil, nil, nil, "2020", "2021", "2022"},
		[][]interface{}{
			{"Сибирский федеральный округ", "0 лет", "Все население", 999, 999, 999},
			{" Алтайский край ", "1 год", "Все население", 110, 120, 130},
			{"Алтайский край", "0 лет", "Все население", 100, 110, 120},
			{"Алтайский край", "0-4 лет", "Все население", 500, 510, 520},
			{"Новосибирская область", "0 лет", "Все население", 200, 210, 220},
			{"Новосибирская область", "1 год", "Все население", 210, 220, 230},
			{"Новосибирская область", "0-4 лет", "Все население", 1000, 1010, 1020},
		})
}

type fakeSource struct {
	mu          sync.Mutex
	page        string
	payload     *Payload
	configErr   error
	tableErr    error
	configCalls int
	tableCalls  int
	requests    []TableRequest
}

func (s *fakeSource) FetchConfig(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configCalls++
	if s.configErr != nil {
		return "", s.configErr
	}
	return s.page, nil
}

func (s *fakeSource) FetchTable(ctx context.Context, req TableRequest) (*Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableCalls++
	s.requests = append(s.requests, req)
	if s.tableErr != nil {
		return nil, s.tableErr
	}
	return s.payload, nil
}
