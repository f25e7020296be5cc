// Package pricing normalizes product statuses and computes markdown prices.
package pricing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/price-standard/price-service/internal/types"
)

var currencySuffix = regexp.MustCompile(`(?i)\s*(руб\.?|р\.|₽|rub|rur)\s*$`)

// ParseAmount parses a price string.
// Handles "1000", "1 234,50", "1.234,50", "1,234.50" and "250 руб."
func ParseAmount(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price value")
	}

	cleaned = currencySuffix.ReplaceAllString(cleaned, "")
	cleaned = strings.Map(func(r rune) rune {
		// Spaces are thousands separators
		if r == ' ' || r == '\u00a0' || r == '\u202f' || r == '₽' {
			return -1
		}
		return r
	}, cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric value found in %q", value)
	}

	// The separator that comes last is the decimal one
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else if lastDot > lastComma {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if !strings.ContainsAny(cleaned[:1], "0123456789-+.") {
		return 0, fmt.Errorf("invalid price format %q", value)
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return 0, fmt.Errorf("invalid price format %q", value)
	}
	return parsed, nil
}

// CellAmount reads a price cell; empty or unparseable cells count as zero
func CellAmount(c types.Cell) float64 {
	switch c.Kind {
	case types.CellNumber:
		return c.Number
	case types.CellText:
		if v, err := ParseAmount(c.Text); err == nil {
			return v
		}
	}
	return 0
}

// RoundHalfUp rounds to the nearest integer with ties away from zero.
//
// It works on the shortest decimal form of v, so 2.675 style values round the
// way they read rather than the way they are stored in binary.
func RoundHalfUp(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Out of int64 range
		return int64(math.Round(v))
	}
	if fracPart != "" && fracPart[0] >= '5' {
		n++
	}
	if negative {
		return -n
	}
	return n
}

// Discounted applies a percent markdown to a retail price and rounds half up
func Discounted(retail float64, percent int) int64 {
	return RoundHalfUp(retail * (1 - float64(percent)/100))
}
