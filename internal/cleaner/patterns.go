package cleaner

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/price-standard/price-service/internal/types"
)

// Patterns is the immutable pattern table the cleaner classifies rows with
type Patterns struct {
	// Boilerplate is matched against the lower-cased row text
	Boilerplate []*regexp.Regexp
	// Category is matched against the upper-cased row text
	Category []*regexp.Regexp
	// CategoryMaxLen bounds the length of a category banner, in runes
	CategoryMaxLen int
	// HeaderWords are the words a repeated table header mentions
	HeaderWords []string
	// HeaderThreshold is how many HeaderWords mark a duplicate header
	HeaderThreshold int
	// MinCodeLength is the shortest product code
	MinCodeLength int
}

// DefaultPatterns returns the pattern table for Russian price lists
func DefaultPatterns() Patterns {
	return Patterns{
		Boilerplate: []*regexp.Regexp{
			regexp.MustCompile(`^прайс[-\s]?лист`),
			regexp.MustCompile(`^параметры\s*:`),
			regexp.MustCompile(`^дата\s*отч[её]та`),
			regexp.MustCompile(`^ответственный`),
			regexp.MustCompile(`^контакт`),
			regexp.MustCompile(`^ооо\s`),
			regexp.MustCompile(`^ип\s`),
			regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}`),
			regexp.MustCompile(`^тел(ефон|\.)`),
			regexp.MustCompile(`^e-?mail`),
			regexp.MustCompile(`^сайт`),
		},
		Category: []*regexp.Regexp{
			regexp.MustCompile(`^\d+\s*[А-ЯЁA-Z][А-ЯЁA-Z\s-]*$`),
			regexp.MustCompile(`^[A-Z][A-Z0-9\s&.'-]*$`),
			regexp.MustCompile(`^[А-ЯЁ][А-ЯЁ\s-]*$`),
			regexp.MustCompile(`^В/Д\s*КРАСКИ`),
			regexp.MustCompile(`^\d-АКЗО\s*НОБЕЛЬ`),
		},
		CategoryMaxLen:  60,
		HeaderWords:     []string{"код товара", "номенклатура", "цена", "качество", "распродажа"},
		HeaderThreshold: 2,
		MinCodeLength:   types.DefaultMinCodeLength,
	}
}

// IsBoilerplate reports document title, contact and date lines
func (p Patterns) IsBoilerplate(row types.Row) bool {
	text := strings.ToLower(row.Joined())
	if text == "" {
		return false
	}
	for _, re := range p.Boilerplate {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsCategory reports a category or brand banner: no code, no number and a
// short capitalized text shape. A banner merged across the row counts once.
func (p Patterns) IsCategory(row types.Row) bool {
	if p.HasCode(row) || hasNumber(row) {
		return false
	}
	text := strings.ToUpper(distinctText(row))
	if text == "" || (p.CategoryMaxLen > 0 && utf8.RuneCountInString(text) > p.CategoryMaxLen) {
		return false
	}
	for _, re := range p.Category {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsDuplicateHeader reports a repeated table header
func (p Patterns) IsDuplicateHeader(row types.Row) bool {
	text := strings.ToLower(row.Joined())
	hits := 0
	for _, word := range p.HeaderWords {
		if strings.Contains(text, word) {
			hits++
		}
	}
	return hits >= p.HeaderThreshold
}

// HasCode reports whether any cell holds a product code
func (p Patterns) HasCode(row types.Row) bool {
	for _, c := range row.Cells {
		if c.IsEmpty() {
			continue
		}
		if types.IsProductCode(c.String(), p.MinCodeLength) {
			return true
		}
	}
	return false
}

// distinctText joins the non-empty cells of a row, collapsing runs of equal
// adjacent values left by merged ranges
func distinctText(row types.Row) string {
	parts := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		s := strings.TrimSpace(c.String())
		if s == "" || (len(parts) > 0 && parts[len(parts)-1] == s) {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// hasNumber reports whether any cell is, or parses as, a plain number
func hasNumber(row types.Row) bool {
	for _, c := range row.Cells {
		switch c.Kind {
		case types.CellNumber:
			return true
		case types.CellText:
			if isPlainNumber(c.Text) {
				return true
			}
		}
	}
	return false
}

func isPlainNumber(s string) bool {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || !strings.ContainsAny(s[:1], "0123456789-+.") {
		return false
	}
	_, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	return err == nil
}
