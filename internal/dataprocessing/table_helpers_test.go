package dataprocessing

// rawTable builds a table of text cells the way ParseSpreadsheet does; an
// empty string becomes a null cell
func rawTable(columns []string, rows ...[]string) *Table {
	t := NewTable(columns...)
	for _, r := range rows {
		row := make(Row, len(columns))
		for j := range row {
			if j < len(r) && r[j] != "" {
				row[j] = Text(r[j])
			} else {
				row[j] = Null()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// numbers builds a row of label cells followed by numeric cells; nil values
// are nulls
func numbers(labels []string, values ...interface{}) []Cell {
	row := make([]Cell, 0, len(labels)+len(values))
	for _, l := range labels {
		row = append(row, Text(l))
	}
	for _, v := range values {
		switch n := v.(type) {
		case int:
			row = append(row, Number(float64(n)))
		case float64:
			row = append(row, Number(n))
		default:
			row = append(row, Null())
		}
	}
	return row
}

func strs(t *Table, column string) []string {
	out := make([]string, t.Len())
	for i := range t.Rows {
		out[i] = t.Get(i, column).String()
	}
	return out
}
