package pricing

import (
	"github.com/price-standard/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// Pass is one named transform step over the data rows
type Pass struct {
	Name  string
	Apply func(rows []types.Row, cm types.ColumnMap) ([]types.Row, *types.ProcessingStats)
}

// Passes returns the transform steps in the order they run: status
// normalization first, then pricing.
func Passes(n *Normalizer, c *Calculator) []Pass {
	return []Pass{
		{
			Name: "normalize-status",
			Apply: func(rows []types.Row, cm types.ColumnMap) ([]types.Row, *types.ProcessingStats) {
				return n.Apply(rows, cm), nil
			},
		},
		{
			Name: "calculate-prices",
			Apply: func(rows []types.Row, cm types.ColumnMap) ([]types.Row, *types.ProcessingStats) {
				out, stats := c.Apply(rows, cm)
				return out, &stats
			},
		},
	}
}

// Transform runs the transform passes and returns the priced rows
func Transform(rows []types.Row, cm types.ColumnMap, n *Normalizer, c *Calculator) ([]types.Row, types.ProcessingStats) {
	stats := types.NewProcessingStats()
	stats.RowsProcessed = len(rows)

	current := rows
	for _, pass := range Passes(n, c) {
		next, passStats := pass.Apply(current, cm)
		if passStats != nil {
			stats = *passStats
		}
		current = next
	}

	log.Debug().
		Int("rows", stats.RowsProcessed).
		Int("sale", stats.RowsWithSale).
		Msg("Transformed rows")

	return current, stats
}
