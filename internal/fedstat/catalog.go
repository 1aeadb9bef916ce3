package fedstat

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	apperrors "fedstatcli/internal/errors"
)

// ReservedCategory is the pseudo-category that only carries the indicator
// title
const ReservedCategory = "0"

// filtersRe captures the object between the "filters:" marker and the first
// closing brace followed by ", left_columns"
var filtersRe = regexp.MustCompile(`(?s)filters:\s*(\{.*?\})\s*,\s*left_columns`)

// Label is a code with its human-readable title
type Label struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// FilterCategory is one filter dimension with its values in page order
type FilterCategory struct {
	Code   string  `json:"code"`
	Title  string  `json:"title"`
	Values []Label `json:"values"`
}

// TokenGroup lists the selection tokens of one category
type TokenGroup struct {
	Category string  `json:"category"`
	Tokens   []Label `json:"tokens"`
}

// Catalog is the ordered filter taxonomy of an indicator
type Catalog struct {
	reserved   FilterCategory
	categories []FilterCategory
}

// Token builds the selection token of a category value
func Token(category, value string) string {
	return category + "_" + value
}

// ParseCatalog recovers the filter catalog from an indicator page or a bare
// script. The embedded object is written in JavaScript literal syntax and is
// repaired into JSON before decoding.
func ParseCatalog(blob string) (*Catalog, error) {
	raw, ok := findFilters(blob)
	if !ok {
		return nil, apperrors.NewParseError("filters block not found in indicator configuration", nil)
	}

	categories, err := decodeCategories(repairObject(raw))
	if err != nil {
		return nil, apperrors.NewParseError("failed to decode filters block", err)
	}
	if len(categories) == 0 {
		return nil, apperrors.NewParseError("filters block has no categories", nil)
	}

	// the title comes from "0" wherever it sits, but the first category is
	// always the one withheld from the filters
	reserved := categories[0]
	for _, c := range categories {
		if c.Code == ReservedCategory {
			reserved = c
			break
		}
	}
	if len(reserved.Values) == 0 {
		return nil, apperrors.NewParseError("reserved category has no values", nil).
			WithContext("category", reserved.Code)
	}

	rest := categories[1:]
	for _, c := range rest {
		if c.Title == "" {
			return nil, apperrors.NewParseError("filter category has no title", nil).
				WithContext("category", c.Code)
		}
	}

	return &Catalog{reserved: reserved, categories: rest}, nil
}

// Title is the title of the reserved category's first value
func (c *Catalog) Title() string {
	return c.reserved.Values[0].Title
}

// Categories returns the selectable categories in page order
func (c *Catalog) Categories() []FilterCategory {
	return c.categories
}

// FilterCodes lists category codes with their titles
func (c *Catalog) FilterCodes() []Label {
	out := make([]Label, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Label{Code: cat.Code, Title: cat.Title}
	}
	return out
}

// CategoryTitle returns the title of a selectable category
func (c *Catalog) CategoryTitle(code string) (string, bool) {
	for _, cat := range c.categories {
		if cat.Code == code {
			return cat.Title, true
		}
	}
	return "", false
}

// AllFilterTokens selects every value of every category
func (c *Catalog) AllFilterTokens() []string {
	var tokens []string
	for _, cat := range c.categories {
		for _, v := range cat.Values {
			tokens = append(tokens, Token(cat.Code, v.Code))
		}
	}
	return tokens
}

// FilterCategories maps each category to its selection tokens and the
// matching value titles
func (c *Catalog) FilterCategories() []TokenGroup {
	groups := make([]TokenGroup, len(c.categories))
	for i, cat := range c.categories {
		tokens := make([]Label, len(cat.Values))
		for j, v := range cat.Values {
			tokens[j] = Label{Code: Token(cat.Code, v.Code), Title: v.Title}
		}
		groups[i] = TokenGroup{Category: cat.Code, Tokens: tokens}
	}
	return groups
}

// findFilters looks for the filters object in every script element, falling
// back to the whole text for bare scripts
func findFilters(blob string) (string, bool) {
	for _, script := range scriptBodies(blob) {
		if m := filtersRe.FindStringSubmatch(script); m != nil {
			return m[1], true
		}
	}
	if m := filtersRe.FindStringSubmatch(blob); m != nil {
		return m[1], true
	}
	return "", false
}

func scriptBodies(blob string) []string {
	z := html.NewTokenizer(strings.NewReader(blob))
	var scripts []string
	var body strings.Builder
	inScript := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return scripts
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = true
				body.Reset()
			}
		case html.TextToken:
			if inScript {
				body.Write(z.Text())
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" && inScript {
				scripts = append(scripts, body.String())
				inScript = false
			}
		}
	}
}

// repairObject rewrites a JavaScript object literal as JSON: bare keys are
// quoted, single-quoted strings become double-quoted and trailing commas
// are dropped. String contents are never rewritten.
func repairObject(src string) string {
	rs := []rune(src)
	var b strings.Builder
	b.Grow(len(src) + len(src)/8)

	for i := 0; i < len(rs); {
		switch c := rs[i]; c {
		case '"', '\'':
			i = writeString(&b, rs, i)
		case ',':
			if k := skipSpace(rs, i+1); k < len(rs) && (rs[k] == '}' || rs[k] == ']') {
				i++
				continue
			}
			b.WriteRune(c)
			i = writeKey(&b, rs, i+1)
		case '{':
			b.WriteRune(c)
			i = writeKey(&b, rs, i+1)
		default:
			b.WriteRune(c)
			i++
		}
	}
	return b.String()
}

// writeKey copies an identifier starting at i, quoting it when a colon
// follows
func writeKey(b *strings.Builder, rs []rune, i int) int {
	k := skipSpace(rs, i)
	b.WriteString(string(rs[i:k]))

	e := k
	for e < len(rs) && isIdentRune(rs[e]) {
		e++
	}
	if e == k {
		return k
	}

	if m := skipSpace(rs, e); m < len(rs) && rs[m] == ':' {
		b.WriteByte('"')
		b.WriteString(string(rs[k:e]))
		b.WriteByte('"')
	} else {
		b.WriteString(string(rs[k:e]))
	}
	return e
}

// writeString emits the string literal starting at i as a JSON string and
// returns the index after its closing quote
func writeString(b *strings.Builder, rs []rune, i int) int {
	quote := rs[i]
	b.WriteByte('"')
	j := i + 1
	for j < len(rs) {
		c := rs[j]
		switch {
		case c == '\\' && j+1 < len(rs):
			if next := rs[j+1]; next == '\'' {
				b.WriteRune('\'')
			} else {
				b.WriteRune(c)
				b.WriteRune(next)
			}
			j += 2
			continue
		case c == quote:
			b.WriteByte('"')
			return j + 1
		case c == '"':
			b.WriteString(`\"`)
		case c < 0x20:
			fmt.Fprintf(b, `\u%04x`, c)
		default:
			b.WriteRune(c)
		}
		j++
	}
	// unterminated literal, left for the decoder to reject
	return j
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// decodeCategories walks the repaired object with a token stream so that
// category and value order survive decoding
func decodeCategories(data string) ([]FilterCategory, error) {
	dec := json.NewDecoder(strings.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var categories []FilterCategory
	for dec.More() {
		code, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		cat, err := decodeCategory(dec, code)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", code, err)
		}
		categories = append(categories, cat)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after filters object")
	}
	return categories, nil
}

func decodeCategory(dec *json.Decoder, code string) (FilterCategory, error) {
	cat := FilterCategory{Code: code}
	if err := expectDelim(dec, '{'); err != nil {
		return cat, err
	}

	hasValues := false
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return cat, err
		}
		switch key {
		case "title":
			if err := dec.Decode(&cat.Title); err != nil {
				return cat, fmt.Errorf("title: %w", err)
			}
		case "values":
			if cat.Values, err = decodeValues(dec); err != nil {
				return cat, fmt.Errorf("values: %w", err)
			}
			hasValues = true
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return cat, err
			}
		}
	}
	if !hasValues {
		return cat, fmt.Errorf("missing values")
	}
	return cat, expectDelim(dec, '}')
}

func decodeValues(dec *json.Decoder) ([]Label, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var values []Label
	for dec.More() {
		code, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var v struct {
			Title *string `json:"title"`
		}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value %q: %w", code, err)
		}
		if v.Title == nil {
			return nil, fmt.Errorf("value %q: missing title", code)
		}
		values = append(values, Label{Code: code, Title: *v.Title})
	}
	return values, expectDelim(dec, '}')
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
