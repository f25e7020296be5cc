package locator

import "github.com/price-standard/price-service/internal/types"

// Policy selects how the header row is recognized
type Policy string

const (
	// PolicyStrict requires a code keyword and a nomenclature keyword in one row
	PolicyStrict Policy = "strict"
	// PolicyGeneric takes the first row that mentions at least two roles
	PolicyGeneric Policy = "generic"
)

// RoleRule binds a role to the lower-case substrings that identify its header cell
type RoleRule struct {
	Role     types.Role
	Keywords []string
}

// Keywords is the ordered keyword table used for header detection and column
// mapping. Rules are tried in order and the first matching rule wins for a cell.
type Keywords struct {
	Rules []RoleRule
	// StrictCode and StrictItem drive PolicyStrict row detection
	StrictCode []string
	StrictItem []string
}

// DefaultKeywords returns the keyword table for Russian price lists.
//
// Code comes first because "код товара" also contains "товар". Price roles come
// before name and status so "спец. цена" never lands on a text column.
func DefaultKeywords() Keywords {
	return Keywords{
		Rules: []RoleRule{
			{Role: types.RoleCode, Keywords: []string{"код товара", "код", "артикул"}},
			{Role: types.RoleSpecialPrice, Keywords: []string{"спец", "акци", "специальная цена"}},
			{Role: types.RoleRetailPrice, Keywords: []string{"розничн", "розница", "цена", "прайс"}},
			{Role: types.RoleStatus, Keywords: []string{"статус", "качество", "распродажа", "срок", "ограничен"}},
			{Role: types.RoleName, Keywords: []string{"номенклатура", "наименование", "название", "товар", "описание"}},
		},
		StrictCode: []string{"код"},
		StrictItem: []string{"номенклатура", "товар"},
	}
}
