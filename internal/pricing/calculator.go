package pricing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/price-standard/price-service/internal/types"
)

// K4 is the marker that forces a sale without touching the special price
const K4 = "К4"

// Marker is a discount tier detected by a pattern in the row text
type Marker struct {
	Name    string
	Pattern *regexp.Regexp
}

// Markers is an ordered marker list; the first match wins
type Markers []Marker

// DefaultMarkers returns К2, К3 and К4 in priority order
func DefaultMarkers() Markers {
	return Markers{
		{Name: "К2", Pattern: regexp.MustCompile(`[Кк]2`)},
		{Name: "К3", Pattern: regexp.MustCompile(`[Кк]3`)},
		{Name: K4, Pattern: regexp.MustCompile(`[Кк]4`)},
	}
}

// Detect returns the first marker found in text
func (m Markers) Detect(text string) (string, bool) {
	for _, marker := range m {
		if marker.Pattern.MatchString(text) {
			return marker.Name, true
		}
	}
	return "", false
}

// Calculator computes special prices from discount markers
type Calculator struct {
	markers   Markers
	discounts types.DiscountSettings
	recalc    bool
}

// NewCalculator validates the discount settings and creates a calculator
func NewCalculator(markers Markers, discounts types.DiscountSettings, recalculateExisting bool) (*Calculator, error) {
	normalized := discounts.Normalized()
	if err := normalized.Validate(); err != nil {
		return nil, fmt.Errorf("discount settings: %w", err)
	}
	return &Calculator{
		markers:   markers,
		discounts: normalized,
		recalc:    recalculateExisting,
	}, nil
}

// Outcome is what the calculator did to one row
type Outcome struct {
	Row    types.Row
	Marker string
	Rule   types.Rule
	Fired  bool
}

// Calculate applies the pricing rules to a single row with a normalized status
func (c *Calculator) Calculate(row types.Row, cm types.ColumnMap) Outcome {
	special := CellAmount(cm.Value(row, types.RoleSpecialPrice))
	retail := CellAmount(cm.Value(row, types.RoleRetailPrice))

	text := strings.TrimSpace(cm.Value(row, types.RoleName).String() + " " + cm.Value(row, types.RoleStatus).String())
	marker, found := c.markers.Detect(text)

	out := Outcome{Row: row, Marker: marker}
	switch {
	case found && marker == K4:
		out.Row = setStatus(row, cm, types.SaleStatus)
		out.Rule, out.Fired = types.RuleK4ForcedSale, true
		return out
	case found:
		pct, ok := c.discounts[marker]
		if ok && (special <= 0 || c.recalc) && retail > 0 {
			price := Discounted(retail, pct)
			updated := row
			if col, ok := cm.Index(types.RoleSpecialPrice); ok {
				updated = updated.With(col, types.Number(float64(price)))
			}
			out.Row = setStatus(updated, cm, types.SaleStatus)
			out.Rule, out.Fired = types.RuleDiscountComputed, true
			return out
		}
	}

	switch {
	case special > 0:
		out.Rule, out.Fired = types.RuleKeptExistingSpecial, true
	case retail > 0:
		out.Rule, out.Fired = types.RulePlainRetail, true
	}
	return out
}

// Apply prices every row and returns the new rows with their stats
func (c *Calculator) Apply(rows []types.Row, cm types.ColumnMap) ([]types.Row, types.ProcessingStats) {
	stats := types.NewProcessingStats()
	out := make([]types.Row, len(rows))

	for i, r := range rows {
		res := c.Calculate(r, cm)
		out[i] = res.Row
		if res.Fired {
			stats.PerRule[res.Rule]++
		}
		if strings.TrimSpace(cm.Value(res.Row, types.RoleStatus).String()) == types.SaleStatus {
			stats.RowsWithSale++
		}
	}
	stats.RowsProcessed = len(rows)
	return out, stats
}

func setStatus(row types.Row, cm types.ColumnMap, status string) types.Row {
	col, ok := cm.Index(types.RoleStatus)
	if !ok {
		return row
	}
	return row.With(col, types.Text(status))
}
