package types

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FileType represents supported input file types
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// DetectFileType resolves the input type from a file name extension
func DetectFileType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FileTypeXLSX, nil
	case ".csv":
		return FileTypeCSV, nil
	default:
		return "", &FormatError{Source: filename, Reason: "unsupported file extension"}
	}
}

// CellKind tags the value held by a Cell
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single spreadsheet value
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Text creates a text cell; blank text yields an empty cell
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// Number creates a numeric cell
func Number(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// IsEmpty reports whether the cell carries no value
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String renders the cell value. Numbers use the shortest decimal form.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return FormatNumber(c.Number)
	default:
		return ""
	}
}

// Float returns the numeric value of a number cell
func (c Cell) Float() (float64, bool) {
	if c.Kind != CellNumber {
		return 0, false
	}
	return c.Number, true
}

// FormatNumber renders a float without exponent or trailing zeros
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Row is one sheet row. Source is the 1-based row number in the input sheet.
type Row struct {
	Source int
	Cells  []Cell
}

// Cell returns the cell at index i, or an empty cell when out of range
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[i]
}

// With returns a copy of the row with cell i replaced
func (r Row) With(i int, c Cell) Row {
	size := len(r.Cells)
	if i >= size {
		size = i + 1
	}
	cells := make([]Cell, size)
	copy(cells, r.Cells)
	cells[i] = c
	return Row{Source: r.Source, Cells: cells}
}

// IsBlank reports whether every cell of the row is empty
func (r Row) IsBlank() bool {
	for _, c := range r.Cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Joined concatenates the rendered non-empty cells separated by a space
func (r Row) Joined() string {
	parts := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if s := strings.TrimSpace(c.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// MergedRange is a rectangular merged cell area, 0-based and inclusive
type MergedRange struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Sheet is a loaded, rectangular grid of cells
type Sheet struct {
	Name   string
	Rows   []Row
	Width  int
	Merges []MergedRange
}

// Role identifies a semantic column of a price list
type Role int

const (
	RoleCode Role = iota
	RoleStatus
	RoleName
	RoleSpecialPrice
	RoleRetailPrice
	roleCount
)

// Roles lists every role in output column order
var Roles = []Role{RoleCode, RoleStatus, RoleName, RoleSpecialPrice, RoleRetailPrice}

func (r Role) String() string {
	switch r {
	case RoleCode:
		return "code"
	case RoleStatus:
		return "status"
	case RoleName:
		return "name"
	case RoleSpecialPrice:
		return "special_price"
	case RoleRetailPrice:
		return "retail_price"
	default:
		return "unknown"
	}
}

// ColumnMap maps roles to 0-based column indices. It is a value type and has no
// setters, so a map handed to a stage cannot be changed by it.
type ColumnMap struct {
	idx [roleCount]int
}

// NewColumnMap builds a ColumnMap from role assignments
func NewColumnMap(assign map[Role]int) ColumnMap {
	var cm ColumnMap
	for i := range cm.idx {
		cm.idx[i] = -1
	}
	for role, col := range assign {
		if role >= 0 && role < roleCount && col >= 0 {
			cm.idx[role] = col
		}
	}
	return cm
}

// Index returns the column of a role
func (cm ColumnMap) Index(role Role) (int, bool) {
	if role < 0 || role >= roleCount {
		return -1, false
	}
	col := cm.idx[role]
	return col, col >= 0
}

// Len returns the number of resolved roles
func (cm ColumnMap) Len() int {
	n := 0
	for _, col := range cm.idx {
		if col >= 0 {
			n++
		}
	}
	return n
}

// Resolved returns the resolved roles in output order
func (cm ColumnMap) Resolved() []Role {
	roles := make([]Role, 0, roleCount)
	for _, role := range Roles {
		if _, ok := cm.Index(role); ok {
			roles = append(roles, role)
		}
	}
	return roles
}

// Value returns the cell of a row for a role
func (cm ColumnMap) Value(r Row, role Role) Cell {
	col, ok := cm.Index(role)
	if !ok {
		return Cell{}
	}
	return r.Cell(col)
}

// MarshalJSON renders the map as role name to column index
func (cm ColumnMap) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, role := range Roles {
		col, ok := cm.Index(role)
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Quote(role.String()))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(col))
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// RowClass is the classification a row receives during cleaning
type RowClass int

const (
	RowData RowClass = iota
	RowBlank
	RowBoilerplate
	RowCategoryHeader
	RowDuplicateHeader
)

func (c RowClass) String() string {
	switch c {
	case RowBlank:
		return "blank"
	case RowBoilerplate:
		return "boilerplate"
	case RowCategoryHeader:
		return "category_header"
	case RowDuplicateHeader:
		return "duplicate_header"
	default:
		return "data"
	}
}

// SaleStatus is the canonical status label for marked-down rows
const SaleStatus = "РАСПРОДАЖА"

// DiscountSettings maps a discount marker (for example "К2") to a percent
type DiscountSettings map[string]int

// DefaultDiscountSettings returns the stock marker percentages
func DefaultDiscountSettings() DiscountSettings {
	return DiscountSettings{"К2": 30, "К3": 40}
}

// Normalized returns a copy with upper-cased, trimmed marker keys
func (d DiscountSettings) Normalized() DiscountSettings {
	out := make(DiscountSettings, len(d))
	for k, v := range d {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

// Validate checks that every percent lies in [0, 100]
func (d DiscountSettings) Validate() error {
	for marker, pct := range d {
		if strings.TrimSpace(marker) == "" {
			return &SettingsError{Marker: marker, Reason: "empty marker"}
		}
		if pct < 0 || pct > 100 {
			return &SettingsError{Marker: marker, Reason: "percent must be between 0 and 100", Value: pct}
		}
	}
	return nil
}

// Rule names a pricing branch counted in ProcessingStats
type Rule string

const (
	RuleKeptExistingSpecial Rule = "kept_existing_special"
	RuleDiscountComputed    Rule = "discount_computed"
	RulePlainRetail         Rule = "plain_retail"
	RuleK4ForcedSale        Rule = "k4_forced_sale"
)

// ProcessingStats counts what happened to data rows during one run
type ProcessingStats struct {
	RowsProcessed int          `json:"rowsProcessed"`
	RowsWithSale  int          `json:"rowsWithSale"`
	PerRule       map[Rule]int `json:"perRule"`
}

// NewProcessingStats returns stats with all rule counters present
func NewProcessingStats() ProcessingStats {
	return ProcessingStats{
		PerRule: map[Rule]int{
			RuleKeptExistingSpecial: 0,
			RuleDiscountComputed:    0,
			RulePlainRetail:         0,
			RuleK4ForcedSale:        0,
		},
	}
}

// Result is the outcome of one pipeline invocation
type Result struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	OutputName string          `json:"outputName,omitempty"`
	Stats      ProcessingStats `json:"stats"`
}

// DefaultMinCodeLength is the shortest token accepted as a product code
const DefaultMinCodeLength = 4

// IsProductCode reports whether s holds a product code: the token before the
// first whitespace starts with a digit, has at least minLen characters and is
// an article number made of digits, Latin letters and the separators "-./".
// Cyrillic text such as a numbered banner "1ОСНОВНОЙ" is not a code.
func IsProductCode(s string, minLen int) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	token := fields[0]
	if token[0] < '0' || token[0] > '9' {
		return false
	}
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r == '-', r == '.', r == '/':
		default:
			return false
		}
	}
	return utf8.RuneCountInString(token) >= minLen
}
