package dataprocessing

import (
	"regexp"
	"strconv"
)

// AgeCategory orders age labels for sorting. It is never written to output.
type AgeCategory int

const (
	// AgeSingle is one age, e.g. "25 лет"
	AgeSingle AgeCategory = iota + 1
	// AgeFiveYear is a standard five-year bucket, e.g. "20-24"
	AgeFiveYear
	// AgeIrregular is any other two-bound range, e.g. "0-17"
	AgeIrregular
	// AgeOther covers open-ended and descriptive labels
	AgeOther
)

var (
	ageNumberRe = regexp.MustCompile(`\d+`)
	ageTokenRe  = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	ageWordRe   = regexp.MustCompile(`^[а-яА-ЯёЁ]+$`)
)

// ageWords counts whole word tokens made only of Cyrillic letters
func ageWords(label string) int {
	n := 0
	for _, tok := range ageTokenRe.FindAllString(label, -1) {
		if ageWordRe.MatchString(tok) {
			n++
		}
	}
	return n
}

func ageNumbers(label string) []int {
	matches := ageNumberRe.FindAllString(label, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// MinAge returns the first integer in the label, or nil
func MinAge(label string) *int {
	nums := ageNumbers(label)
	if len(nums) == 0 {
		return nil
	}
	v := nums[0]
	return &v
}

// MaxAge returns the last integer in the label, or nil
func MaxAge(label string) *int {
	nums := ageNumbers(label)
	if len(nums) == 0 {
		return nil
	}
	v := nums[len(nums)-1]
	return &v
}

// ClassifyAge returns the sort class of an age label. Labels that fit no
// rule fall into AgeOther rather than failing.
func ClassifyAge(label string) AgeCategory {
	nums := ageNumbers(label)
	words := ageWords(label)

	switch {
	case len(nums) == 1 && words <= 3:
		return AgeSingle
	case len(nums) == 2 && words <= 1:
		if nums[1]-nums[0] == 4 {
			return AgeFiveYear
		}
		return AgeIrregular
	default:
		return AgeOther
	}
}

// ageKey is the derived sort key of one row
type ageKey struct {
	category AgeCategory
	min      *int
	max      *int
}

func newAgeKey(label string) ageKey {
	return ageKey{
		category: ClassifyAge(label),
		min:      MinAge(label),
		max:      MaxAge(label),
	}
}

// less orders by category, then min, then max; missing ages sort last
func (k ageKey) less(o ageKey) bool {
	if k.category != o.category {
		return k.category < o.category
	}
	if c := compareOptional(k.min, o.min); c != 0 {
		return c < 0
	}
	return compareOptional(k.max, o.max) < 0
}

func compareOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
