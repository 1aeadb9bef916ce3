package dataprocessing

import (
	"sort"
	"strings"
)

// District is a federal district whose totals are rebuilt from its member
// regions. Stale marks the source's own district rows, Members the regions
// summed into the rebuilt row. All patterns are case-insensitive substrings.
type District struct {
	Name    string
	Stale   []string
	Members []string
}

// Districts is the fixed set of federal districts that get recomputed
var Districts = []District{
	{
		Name:  "Дальневосточный федеральный округ",
		Stale: []string{"Дальневосточный федеральный"},
		Members: []string{
			"Бурятия",
			"Забайкал",
			"Саха",
			"Якутия",
			"Камчат",
			"Приморск",
			"Хабаровский",
			"Амурская",
			"Магаданская",
			"Сахалинская",
			"Еврейская автономная область",
			"Чукотский автономный округ",
		},
	},
	{
		Name:  "Сибирский федеральный округ",
		Stale: []string{"Сибирский федеральный"},
		Members: []string{
			"Алтай",
			"Тыва",
			"Хакасия",
			"Красноярский",
			"Иркутская",
			"Кемеровская",
			"Кузбасс",
			"Новосибирская",
			"Омская",
			"Томская",
		},
	},
	{
		Name:  "Южный федеральный округ",
		Stale: []string{"Южный федеральный"},
		Members: []string{
			"Адыгея",
			"Калмыкия",
			"Краснодарский",
			"Астраханская",
			"Волгоградская",
			"Ростовская",
			"Крым",
			"Севастополь",
		},
	},
	{
		Name:  "Северо-Кавказский федеральный округ",
		Stale: []string{"Северо-Кавказский федеральный"},
		Members: []string{
			"Дагестан",
			"Ингушетия",
			"Кабардин",
			"Балкар",
			"Карачаев",
			"Черкес",
			"Осетия",
			"Алания",
			"Чечен",
			"Ставрополь",
		},
	},
}

// PatternSet matches labels by case-insensitive substring
type PatternSet []string

// Match reports whether the label contains any of the patterns
func (p PatternSet) Match(label string) bool {
	l := strings.ToLower(label)
	for _, pat := range p {
		if strings.Contains(l, strings.ToLower(pat)) {
			return true
		}
	}
	return false
}

// stalePatterns collects the removal patterns of every district
func stalePatterns(districts []District) PatternSet {
	var out PatternSet
	for _, d := range districts {
		out = append(out, d.Stale...)
	}
	return out
}

// RemoveDistricts drops the source's district summary rows, which are not
// trusted.
func RemoveDistricts(t *Table) *Table {
	return removeDistricts(t, Districts)
}

func removeDistricts(t *Table, districts []District) *Table {
	stale := stalePatterns(districts)
	out := NewTable(t.Columns...)
	for _, r := range t.Rows {
		if len(r) > RegionColumn && stale.Match(r[RegionColumn].String()) {
			continue
		}
		out.Rows = append(out.Rows, append(Row(nil), r...))
	}
	return out
}

// AggregateDistricts appends one row per (district, age, settlement) holding
// the sum of the district's member regions. Member rows are kept. A district
// without member rows adds nothing.
func AggregateDistricts(t *Table) *Table {
	return aggregateDistricts(t, Districts)
}

func aggregateDistricts(t *Table, districts []District) *Table {
	out := t.Clone()
	if len(t.Columns) < KeyColumns {
		return out
	}

	numeric := numericColumns(t)
	for _, d := range districts {
		members := PatternSet(d.Members)
		groups := make(map[string]Row)
		var order []string

		for _, r := range t.Rows {
			if !members.Match(r[RegionColumn].String()) {
				continue
			}
			k := rowKey(Row{r[AgeColumn], r[SettlementColumn]}, 2)
			acc, ok := groups[k]
			if !ok {
				acc = make(Row, len(t.Columns))
				acc[RegionColumn] = Text(d.Name)
				acc[AgeColumn] = r[AgeColumn]
				acc[SettlementColumn] = r[SettlementColumn]
				for _, col := range numeric {
					acc[col] = Number(0)
				}
				groups[k] = acc
				order = append(order, k)
			}
			for _, col := range numeric {
				if v, ok := r[col].Float(); ok {
					acc[col].Num += v
				}
			}
		}

		sort.Strings(order)
		for _, k := range order {
			out.Rows = append(out.Rows, groups[k])
		}
	}
	return out
}

// numericColumns returns the non-key columns that hold numbers
func numericColumns(t *Table) []int {
	var cols []int
	for j := KeyColumns; j < len(t.Columns); j++ {
		if IsYearColumn(t.Columns[j]) {
			cols = append(cols, j)
			continue
		}
		for _, r := range t.Rows {
			if r[j].Kind == CellNumber {
				cols = append(cols, j)
				break
			}
		}
	}
	return cols
}
