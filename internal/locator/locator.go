// Package locator finds the table header of a price list and maps its columns to roles.
package locator

import (
	"strings"

	"github.com/price-standard/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// DefaultScanRows is how many leading rows are searched for the header
const DefaultScanRows = 15

// minRoles is the least number of roles a usable header must resolve
const minRoles = 2

// Location is the located header row and the column map built from it
type Location struct {
	HeaderRow int             `json:"headerRow"`
	Columns   types.ColumnMap `json:"columns"`
}

// Locator detects the header row of a sheet
type Locator struct {
	keywords Keywords
	policy   Policy
	scanRows int
}

// New creates a locator. A non-positive scanRows falls back to DefaultScanRows.
func New(keywords Keywords, policy Policy, scanRows int) *Locator {
	if scanRows <= 0 {
		scanRows = DefaultScanRows
	}
	if policy == "" {
		policy = PolicyStrict
	}
	return &Locator{keywords: keywords, policy: policy, scanRows: scanRows}
}

// Locate finds the header row and builds the column map
func (l *Locator) Locate(rows []types.Row) (Location, error) {
	if len(rows) == 0 {
		return Location{}, &types.StructureError{HeaderRow: -1, Reason: "sheet is empty"}
	}

	header, ok := l.findHeader(rows)
	if !ok {
		return Location{}, &types.StructureError{HeaderRow: -1, Reason: "no header row with code and nomenclature columns"}
	}

	cm := l.MapColumns(rows[header])
	if cm.Len() < minRoles {
		return Location{}, &types.StructureError{
			HeaderRow: header,
			Found:     cm.Resolved(),
			Reason:    "fewer than two columns recognized",
		}
	}

	log.Debug().
		Int("headerRow", header).
		Str("policy", string(l.policy)).
		Int("roles", cm.Len()).
		Msg("Located table header")

	return Location{HeaderRow: header, Columns: cm}, nil
}

func (l *Locator) findHeader(rows []types.Row) (int, bool) {
	limit := l.scanRows
	if limit > len(rows) {
		limit = len(rows)
	}

	switch l.policy {
	case PolicyGeneric:
		for i := 0; i < limit; i++ {
			if l.roleHits(rows[i]) >= minRoles {
				return i, true
			}
		}
		return 0, true
	default:
		for i := 0; i < limit; i++ {
			text := strings.ToLower(rows[i].Joined())
			if containsAny(text, l.keywords.StrictCode) && containsAny(text, l.keywords.StrictItem) {
				return i, true
			}
		}
		return -1, false
	}
}

// roleHits counts distinct roles mentioned by the cells of a row
func (l *Locator) roleHits(row types.Row) int {
	seen := make(map[types.Role]bool)
	for _, c := range row.Cells {
		text := normalize(c)
		if text == "" {
			continue
		}
		for _, rule := range l.keywords.Rules {
			if containsAny(text, rule.Keywords) {
				seen[rule.Role] = true
			}
		}
	}
	return len(seen)
}

// MapColumns builds a column map from a header row. The first rule matching a
// cell decides its role; the first column claiming a role keeps it.
func (l *Locator) MapColumns(header types.Row) types.ColumnMap {
	assign := make(map[types.Role]int)
	for col, c := range header.Cells {
		text := normalize(c)
		if text == "" {
			continue
		}
		for _, rule := range l.keywords.Rules {
			if !containsAny(text, rule.Keywords) {
				continue
			}
			if _, taken := assign[rule.Role]; !taken {
				assign[rule.Role] = col
			}
			break
		}
	}
	return types.NewColumnMap(assign)
}

func normalize(c types.Cell) string {
	if c.Kind != types.CellText {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Text))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
