package fedstat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fedstatcli/internal/errors"
)

func TestParseCatalogFromPage(t *testing.T) {
	c, err := ParseCatalog(indicatorPage)
	require.NoError(t, err)

	assert.Equal(t, "Численность постоянного населения - мужчин на 1 января", c.Title())
	assert.Equal(t, []Label{
		{Code: "57831", Title: "Субъект Российской Федерации"},
		{Code: "58335", Title: "Возраст"},
		{Code: "57956", Title: "Тип поселения"},
		{Code: "30611", Title: "Год"},
		{Code: "33560", Title: "Период"},
	}, c.FilterCodes())

	regions := c.Categories()[0]
	require.Len(t, regions.Values, 3)
	assert.Equal(t, "Сибирский федеральный округ", regions.Values[2].Title)
}

func TestParseCatalogBareScript(t *testing.T) {
	script := `new FGrid({filters: {"0": {"title": "Показатель", "values": {"0": {"title": "Рождаемость"}}},
		"3": {"title": "Единица", "values": {"1": {"title": "человек"}}}}, left_columns: []})`

	c, err := ParseCatalog(script)
	require.NoError(t, err)
	assert.Equal(t, "Рождаемость", c.Title())
	assert.Equal(t, []string{"3_1"}, c.AllFilterTokens())
}

func TestParseCatalogTokens(t *testing.T) {
	c, err := ParseCatalog(indicatorPage)
	require.NoError(t, err)

	tokens := c.AllFilterTokens()
	assert.Len(t, tokens, 10)
	assert.Equal(t, []string{"57831_1", "57831_2", "57831_3", "58335_10"}, tokens[:4])
	assert.NotContains(t, tokens, "0_0")

	groups := c.FilterCategories()
	require.Len(t, groups, 5)
	assert.Equal(t, "58335", groups[1].Category)
	assert.Equal(t, []Label{
		{Code: "58335_10", Title: "0 лет"},
		{Code: "58335_11", Title: "1 год"},
	}, groups[1].Tokens)

	title, ok := c.CategoryTitle("57956")
	assert.True(t, ok)
	assert.Equal(t, "Тип поселения", title)
	_, ok = c.CategoryTitle("0")
	assert.False(t, ok)
}

func TestParseCatalogReservedFallsBackToFirst(t *testing.T) {
	script := `filters: {7: {title: 'Показатель', values: {1: {title: 'Смертность'}}},
		8: {title: 'Пол', values: {1: {title: 'мужчины'}, 2: {title: 'женщины'}}}}, left_columns: []`

	c, err := ParseCatalog(script)
	require.NoError(t, err)
	assert.Equal(t, "Смертность", c.Title())
	assert.Equal(t, []Label{{Code: "8", Title: "Пол"}}, c.FilterCodes())
}

func TestParseCatalogWithholdsFirstCategory(t *testing.T) {
	script := `filters: {57831: {title: 'Регион', values: {643: {title: 'Российская Федерация'}}},
		0: {title: 'Показатель', values: {0: {title: 'Число умерших'}}}}, left_columns: []`

	c, err := ParseCatalog(script)
	require.NoError(t, err)
	assert.Equal(t, "Число умерших", c.Title())
	assert.Equal(t, []Label{{Code: "0", Title: "Показатель"}}, c.FilterCodes())
	_, ok := c.CategoryTitle("57831")
	assert.False(t, ok)
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{
			name: "no markers",
			blob: `<html><script>var grid = {};</script></html>`,
		},
		{
			name: "filters without left columns",
			blob: `filters: {0: {title: 'x', values: {0: {title: 'y'}}}}`,
		},
		{
			name: "category without title",
			blob: `filters: {0: {title: 'x', values: {0: {title: 'y'}}}, 5: {values: {1: {title: 'a'}}}}, left_columns: []`,
		},
		{
			name: "category without values",
			blob: `filters: {0: {title: 'x', values: {0: {title: 'y'}}}, 5: {title: 'Пол'}}, left_columns: []`,
		},
		{
			name: "value without title",
			blob: `filters: {0: {title: 'x', values: {0: {title: 'y'}}}, 5: {title: 'Пол', values: {1: {name: 'a'}}}}, left_columns: []`,
		},
		{
			name: "reserved category without values",
			blob: `filters: {0: {title: 'x', values: {}}}, left_columns: []`,
		},
		{
			name: "broken literal",
			blob: `filters: {0: {title: 'x', values: {0: {title: y z}}}}, left_columns: []`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog(tt.blob)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrParse)
		})
	}
}

func TestRepairObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare keys",
			in:   `{a: 1, b_2: {c: 'x'}}`,
			want: `{"a": 1, "b_2": {"c": "x"}}`,
		},
		{
			name: "numeric keys",
			in:   `{57831: {title: 'Регион'}}`,
			want: `{"57831": {"title": "Регион"}}`,
		},
		{
			name: "trailing commas",
			in:   `{a: [1, 2,], b: {c: 1,},}`,
			want: `{"a": [1, 2], "b": {"c": 1}}`,
		},
		{
			name: "double quote inside single quoted string",
			in:   `{t: 'ООО "Ромашка"'}`,
			want: `{"t": "ООО \"Ромашка\""}`,
		},
		{
			name: "escaped single quote",
			in:   `{t: 'it\'s'}`,
			want: `{"t": "it's"}`,
		},
		{
			name: "string contents untouched",
			in:   `{t: 'a, b: {c: d,}'}`,
			want: `{"t": "a, b: {c: d,}"}`,
		},
		{
			name: "already json",
			in:   `{"a": "b"}`,
			want: `{"a": "b"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairObject(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), "repaired object must be valid JSON: %s", got)
		})
	}
}

func TestRepairObjectControlCharacters(t *testing.T) {
	got := repairObject("{t: 'line\none'}")
	assert.Equal(t, `{"t": "line\u000aone"}`, got)
	assert.True(t, json.Valid([]byte(got)))
}

func TestToken(t *testing.T) {
	assert.Equal(t, "57831_12", Token("57831", "12"))
}
