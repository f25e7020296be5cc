package pricing

import (
	"strings"

	"github.com/price-standard/price-service/internal/types"
)

// StatusRule maps a lower-case substring of a status to a canonical value
type StatusRule struct {
	Key   string
	Value string
}

// StatusRules is an ordered rule list; the first key found wins
type StatusRules []StatusRule

// DefaultStatusRules returns the status vocabulary of Russian price lists
func DefaultStatusRules() StatusRules {
	return StatusRules{
		{Key: "новинка", Value: ""},
		{Key: "новый", Value: ""},
		{Key: "новое", Value: ""},
		{Key: "new", Value: ""},
		{Key: "ограничен", Value: types.SaleStatus},
		{Key: "брак", Value: types.SaleStatus},
		{Key: "уценка", Value: types.SaleStatus},
		{Key: "некондиция", Value: types.SaleStatus},
		{Key: "распродажа", Value: types.SaleStatus},
		{Key: "sale", Value: types.SaleStatus},
		{Key: "акция", Value: types.SaleStatus},
		{Key: "promo", Value: types.SaleStatus},
	}
}

// Normalizer rewrites free-text statuses into the canonical vocabulary
type Normalizer struct {
	rules StatusRules
}

// NewNormalizer creates a normalizer over a copy of rules
func NewNormalizer(rules StatusRules) *Normalizer {
	owned := make(StatusRules, len(rules))
	for i, r := range rules {
		owned[i] = StatusRule{Key: strings.ToLower(r.Key), Value: r.Value}
	}
	return &Normalizer{rules: owned}
}

// Normalize returns the canonical form of a status. Unmatched text is
// returned unchanged and SALE always stays SALE.
func (n *Normalizer) Normalize(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return ""
	}
	if trimmed == types.SaleStatus {
		return types.SaleStatus
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range n.rules {
		if strings.Contains(lower, rule.Key) {
			return rule.Value
		}
	}
	return status
}

// Apply returns rows with the Status column normalized. Rows are copied, the
// input slice is left untouched.
func (n *Normalizer) Apply(rows []types.Row, cm types.ColumnMap) []types.Row {
	col, ok := cm.Index(types.RoleStatus)
	if !ok {
		return rows
	}

	out := make([]types.Row, len(rows))
	for i, r := range rows {
		current := r.Cell(col)
		normalized := n.Normalize(current.String())
		if current.Kind == types.CellText && normalized == current.Text {
			out[i] = r
			continue
		}
		if current.IsEmpty() && normalized == "" {
			out[i] = r
			continue
		}
		out[i] = r.With(col, types.Text(normalized))
	}
	return out
}
