// Package cleaner strips non-product rows from the rows below a price list header.
package cleaner

import (
	"github.com/price-standard/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// Pass is one named cleaning step. Apply never modifies its input slice.
type Pass struct {
	Name  string
	Drops types.RowClass
	Apply func(rows []types.Row) []types.Row
}

// PassReport records how many rows a pass removed
type PassReport struct {
	Pass    string `json:"pass"`
	Removed int    `json:"removed"`
}

// Cleaner removes blank, boilerplate, category and repeated header rows
type Cleaner struct {
	patterns Patterns
}

// New creates a cleaner with the given pattern table
func New(patterns Patterns) *Cleaner {
	return &Cleaner{patterns: patterns}
}

// Patterns returns the pattern table the cleaner was built with
func (c *Cleaner) Patterns() Patterns {
	return c.patterns
}

// Passes returns the cleaning steps in the order they run
func (c *Cleaner) Passes() []Pass {
	return []Pass{
		{Name: "drop-blank", Drops: types.RowBlank, Apply: dropBlank},
		{Name: "drop-boilerplate", Drops: types.RowBoilerplate, Apply: c.filter(c.patterns.IsBoilerplate)},
		{Name: "drop-category", Drops: types.RowCategoryHeader, Apply: c.filter(c.patterns.IsCategory)},
		{Name: "drop-duplicate-header", Drops: types.RowDuplicateHeader, Apply: c.dropDuplicateHeaders},
		{Name: "drop-blank-final", Drops: types.RowBlank, Apply: dropBlank},
	}
}

// Clean runs every pass over rows and reports per-pass removals
func (c *Cleaner) Clean(rows []types.Row) ([]types.Row, []PassReport) {
	passes := c.Passes()
	reports := make([]PassReport, 0, len(passes))

	current := rows
	for _, pass := range passes {
		next := pass.Apply(current)
		reports = append(reports, PassReport{Pass: pass.Name, Removed: len(current) - len(next)})
		current = next
	}

	log.Debug().
		Int("in", len(rows)).
		Int("out", len(current)).
		Msg("Cleaned rows")

	return current, reports
}

// Classify returns the class a row gets. first marks the first row of the
// working set, which is never treated as a repeated header.
func (c *Cleaner) Classify(row types.Row, first bool) types.RowClass {
	switch {
	case row.IsBlank():
		return types.RowBlank
	case c.patterns.IsBoilerplate(row):
		return types.RowBoilerplate
	case c.patterns.IsCategory(row):
		return types.RowCategoryHeader
	case !first && c.patterns.IsDuplicateHeader(row):
		return types.RowDuplicateHeader
	default:
		return types.RowData
	}
}

func (c *Cleaner) filter(drop func(types.Row) bool) func([]types.Row) []types.Row {
	return func(rows []types.Row) []types.Row {
		out := make([]types.Row, 0, len(rows))
		for _, r := range rows {
			if !drop(r) {
				out = append(out, r)
			}
		}
		return out
	}
}

// dropDuplicateHeaders keeps the first row of the set unconditionally
func (c *Cleaner) dropDuplicateHeaders(rows []types.Row) []types.Row {
	out := make([]types.Row, 0, len(rows))
	for i, r := range rows {
		if i > 0 && c.patterns.IsDuplicateHeader(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dropBlank(rows []types.Row) []types.Row {
	out := make([]types.Row, 0, len(rows))
	for _, r := range rows {
		if !r.IsBlank() {
			out = append(out, r)
		}
	}
	return out
}
