// Package exporter renders priced rows into a styled, print-ready workbook.
package exporter

import (
	"github.com/price-standard/price-service/internal/types"
)

const (
	// HeaderBlockRows is the size of the document header inserted above the table
	HeaderBlockRows = 6
	// PaperA4 is the excelize paper size code for A4
	PaperA4 = 9

	cmPerInch = 2.54
)

// Margins are page margins in centimetres
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
	Header float64
	Footer float64
}

// Palette holds the fill and font colors of the output, as RRGGBB
type Palette struct {
	HeaderFill   string
	HeaderFont   string
	CategoryFill string
	SaleFill     string
	SaleFont     string
	Border       string
}

// Layout is the immutable presentation table of an output document
type Layout struct {
	SheetName      string
	Title          string
	Responsible    string
	Captions       map[types.Role]string
	FontFamily     string
	PriceFormat    string
	MaxColumnWidth int
	PaperSize      int
	Margins        Margins
	Palette        Palette
	HeaderText     string
	FooterText     string
}

// DefaultLayout returns the standard price list layout
func DefaultLayout() Layout {
	return Layout{
		SheetName:   "Прайс-лист",
		Title:       `Прайс-лист ООО "АЛЬТ-Икс"`,
		Responsible: "Сидорова О.О.",
		Captions: map[types.Role]string{
			types.RoleCode:         "Код товара",
			types.RoleStatus:       "Статус",
			types.RoleName:         "Номенклатура",
			types.RoleSpecialPrice: "Спец. цена",
			types.RoleRetailPrice:  "Розничная цена",
		},
		FontFamily:     "Arial",
		PriceFormat:    "#,##0",
		MaxColumnWidth: 50,
		PaperSize:      PaperA4,
		Margins: Margins{
			Top:    2.0,
			Bottom: 1.5,
			Left:   1.5,
			Right:  1.5,
			Header: 1.0,
			Footer: 1.0,
		},
		Palette: Palette{
			HeaderFill:   "444444",
			HeaderFont:   "FFFFFF",
			CategoryFill: "D6EAF8",
			SaleFill:     "FFCCCC",
			SaleFont:     "FF0000",
			Border:       "000000",
		},
		HeaderText: "&C&D",
		FooterText: "&RСтраница &P из &N",
	}
}

// Caption returns the column caption of a role
func (l Layout) Caption(role types.Role) string {
	if c, ok := l.Captions[role]; ok {
		return c
	}
	return role.String()
}

var monthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func isPrice(role types.Role) bool {
	return role == types.RoleSpecialPrice || role == types.RoleRetailPrice
}
