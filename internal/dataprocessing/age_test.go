package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestClassifyAge(t *testing.T) {
	tests := []struct {
		label string
		want  AgeCategory
	}{
		{"25 лет", AgeSingle},
		{"25", AgeSingle},
		{"1 год", AgeSingle},
		{"80 лет и более", AgeSingle},
		{"20-24 лет", AgeFiveYear},
		{"20-24", AgeFiveYear},
		{"0-17 лет", AgeIrregular},
		{"16-29", AgeIrregular},
		{"Всего", AgeOther},
		{"total", AgeOther},
		{"", AgeOther},
		{"от 5 до 9 лет включительно", AgeOther},
		{"1 2 3", AgeOther},
		{"в возрасте от 0 до 4 лет", AgeOther},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAge(tt.label))
		})
	}
}

func TestMinMaxAge(t *testing.T) {
	tests := []struct {
		label string
		min   *int
		max   *int
	}{
		{"25 лет", intPtr(25), intPtr(25)},
		{"20-24", intPtr(20), intPtr(24)},
		{"от 5 до 9 лет", intPtr(5), intPtr(9)},
		{"100 лет и старше", intPtr(100), intPtr(100)},
		{"Всего", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.min, MinAge(tt.label))
			assert.Equal(t, tt.max, MaxAge(tt.label))
		})
	}
}

func TestMinAgeNeverExceedsMaxAge(t *testing.T) {
	labels := []string{"0", "5-9", "70 и старше", "20-24 лет", "моложе трудоспособного", "1 2 3 4"}
	for _, l := range labels {
		min, max := MinAge(l), MaxAge(l)
		c := ClassifyAge(l)
		assert.True(t, c >= AgeSingle && c <= AgeOther, l)
		if min == nil || max == nil {
			assert.Nil(t, min, l)
			assert.Nil(t, max, l)
			continue
		}
		assert.LessOrEqual(t, *min, *max, l)
	}
}

func TestAgeKeyOrdering(t *testing.T) {
	assert.True(t, newAgeKey("1").less(newAgeKey("10")))
	assert.True(t, newAgeKey("10").less(newAgeKey("0-4")))
	assert.True(t, newAgeKey("5-9").less(newAgeKey("16-29")))
	assert.True(t, newAgeKey("16-29").less(newAgeKey("Всего")))
	assert.False(t, newAgeKey("Всего").less(newAgeKey("Всего")))
}
