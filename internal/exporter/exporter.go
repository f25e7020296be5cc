package exporter

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/price-standard/price-service/internal/cleaner"
	"github.com/price-standard/price-service/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Exporter writes rows into a new workbook
type Exporter struct {
	layout   Layout
	patterns cleaner.Patterns

	// Now supplies the document date
	Now func() time.Time
}

// New creates an exporter. patterns drive the repeated-header filter.
func New(layout Layout, patterns cleaner.Patterns) *Exporter {
	return &Exporter{
		layout:   layout,
		patterns: patterns,
		Now:      time.Now,
	}
}

type styleDef struct {
	id    *int
	style *excelize.Style
}

// styles holds the style ids registered in one workbook
type styles struct {
	title         int
	header        int
	text          int
	price         int
	categoryText  int
	categoryPrice int
	saleText      int
	salePrice     int
	saleStatus    int
}

// Export renders rows into a workbook. The caller owns the returned file and
// must Close it.
func (e *Exporter) Export(rows []types.Row, cm types.ColumnMap) (*excelize.File, error) {
	roles := cm.Resolved()
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: no columns to write", types.ErrExport)
	}

	f := excelize.NewFile()
	if err := e.render(f, rows, cm, roles); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteTo renders rows and streams the workbook to w
func (e *Exporter) WriteTo(w io.Writer, rows []types.Row, cm types.ColumnMap) (int64, error) {
	f, err := e.Export(rows, cm)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := f.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("%w: write workbook: %v", types.ErrExport, err)
	}
	return n, nil
}

func (e *Exporter) render(f *excelize.File, rows []types.Row, cm types.ColumnMap, roles []types.Role) error {
	sheet := e.layout.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("%w: rename sheet: %v", types.ErrExport, err)
	}

	st, err := e.registerStyles(f)
	if err != nil {
		return fmt.Errorf("%w: register styles: %v", types.ErrExport, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(roles))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrExport, err)
	}

	widths := make([]int, len(roles))
	for i, role := range roles {
		caption := e.layout.Caption(role)
		widths[i] = utf8.RuneCountInString(caption)
		axis, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, axis, caption); err != nil {
			return fmt.Errorf("%w: write header: %v", types.ErrExport, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.header); err != nil {
		return fmt.Errorf("%w: style header: %v", types.ErrExport, err)
	}

	written, skipped := 0, 0
	for _, row := range rows {
		if e.patterns.IsDuplicateHeader(row) {
			skipped++
			continue
		}
		rowNum := written + 2
		category := isCategoryRow(row, cm)
		sale := !category && strings.TrimSpace(cm.Value(row, types.RoleStatus).String()) == types.SaleStatus

		for i, role := range roles {
			axis, _ := excelize.CoordinatesToCellName(i+1, rowNum)
			cell := cm.Value(row, role)
			if err := writeCell(f, sheet, axis, cell); err != nil {
				return fmt.Errorf("%w: write %s: %v", types.ErrExport, axis, err)
			}
			if err := f.SetCellStyle(sheet, axis, axis, st.pick(role, category, sale)); err != nil {
				return fmt.Errorf("%w: style %s: %v", types.ErrExport, axis, err)
			}
			if n := utf8.RuneCountInString(displayValue(cell, role)); n > widths[i] {
				widths[i] = n
			}
		}
		written++
	}

	// The date and responsible lines sit in column A. The title is merged
	// across the table and does not size a single column.
	for _, line := range e.blockLines()[1:] {
		if n := utf8.RuneCountInString(line.value); n > widths[0] {
			widths[0] = n
		}
	}

	for i := range roles {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := widths[i] + 2
		if e.layout.MaxColumnWidth > 0 && width > e.layout.MaxColumnWidth {
			width = e.layout.MaxColumnWidth
		}
		if err := f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			return fmt.Errorf("%w: column width: %v", types.ErrExport, err)
		}
	}

	if err := e.insertHeaderBlock(f, sheet, lastCol, st); err != nil {
		return err
	}

	headerRow := HeaderBlockRows + 1
	filterRange := fmt.Sprintf("A%d:%s%d", headerRow, lastCol, headerRow+written)
	if err := f.AutoFilter(sheet, filterRange, []excelize.AutoFilterOptions{}); err != nil {
		return fmt.Errorf("%w: auto filter: %v", types.ErrExport, err)
	}

	if err := e.applyPageSetup(f, sheet); err != nil {
		return err
	}

	log.Debug().
		Int("rows", written).
		Int("skipped", skipped).
		Int("columns", len(roles)).
		Msg("Rendered workbook")

	return nil
}

// insertHeaderBlock shifts the table down and writes the title, date and
// responsible person lines above it
func (e *Exporter) insertHeaderBlock(f *excelize.File, sheet, lastCol string, st styles) error {
	if err := f.InsertRows(sheet, 1, HeaderBlockRows); err != nil {
		return fmt.Errorf("%w: insert header block: %v", types.ErrExport, err)
	}

	for _, line := range e.blockLines() {
		if err := f.SetCellValue(sheet, line.axis, line.value); err != nil {
			return fmt.Errorf("%w: header block: %v", types.ErrExport, err)
		}
	}

	if lastCol != "A" {
		if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
			return fmt.Errorf("%w: merge title: %v", types.ErrExport, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.title); err != nil {
		return fmt.Errorf("%w: style title: %v", types.ErrExport, err)
	}
	return nil
}

type blockLine struct {
	axis  string
	value string
}

// blockLines returns the title, date and responsible lines of the header block
func (e *Exporter) blockLines() []blockLine {
	return []blockLine{
		{"A1", e.layout.Title},
		{"A3", FormatDocumentDate(e.Now())},
		{"A5", "Ответственный: " + e.layout.Responsible},
	}
}

func (e *Exporter) applyPageSetup(f *excelize.File, sheet string) error {
	size := e.layout.PaperSize
	orientation := "landscape"
	fitWidth, fitHeight := 1, 0
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fitWidth,
		FitToHeight: &fitHeight,
	}); err != nil {
		return fmt.Errorf("%w: page layout: %v", types.ErrExport, err)
	}

	fit := true
	if err := f.SetSheetProps(sheet, &excelize.SheetPropsOptions{FitToPage: &fit}); err != nil {
		return fmt.Errorf("%w: sheet props: %v", types.ErrExport, err)
	}

	m := e.layout.Margins
	inches := func(cm float64) *float64 {
		v := cm / cmPerInch
		return &v
	}
	if err := f.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Top:    inches(m.Top),
		Bottom: inches(m.Bottom),
		Left:   inches(m.Left),
		Right:  inches(m.Right),
		Header: inches(m.Header),
		Footer: inches(m.Footer),
	}); err != nil {
		return fmt.Errorf("%w: page margins: %v", types.ErrExport, err)
	}

	if err := f.SetHeaderFooter(sheet, &excelize.HeaderFooterOptions{
		OddHeader: e.layout.HeaderText,
		OddFooter: e.layout.FooterText,
	}); err != nil {
		return fmt.Errorf("%w: header and footer: %v", types.ErrExport, err)
	}
	return nil
}

func (e *Exporter) registerStyles(f *excelize.File) (styles, error) {
	p := e.layout.Palette
	family := e.layout.FontFamily
	priceFmt := e.layout.PriceFormat
	borders := []excelize.Border{
		{Type: "left", Color: p.Border, Style: 1},
		{Type: "top", Color: p.Border, Style: 1},
		{Type: "right", Color: p.Border, Style: 1},
		{Type: "bottom", Color: p.Border, Style: 1},
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	var st styles
	defs := []styleDef{}
	add := func(id *int, s *excelize.Style) {
		defs = append(defs, styleDef{id: id, style: s})
	}

	add(&st.title, &excelize.Style{
		Font:      &excelize.Font{Bold: true, Family: family, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	add(&st.header, &excelize.Style{
		Font:      &excelize.Font{Bold: true, Family: family, Size: 12, Color: p.HeaderFont},
		Fill:      fill(p.HeaderFill),
		Border:    borders,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	add(&st.text, &excelize.Style{
		Font:   &excelize.Font{Family: family, Size: 10},
		Border: borders,
	})
	add(&st.price, &excelize.Style{
		Font:         &excelize.Font{Family: family, Size: 10},
		Border:       borders,
		CustomNumFmt: &priceFmt,
	})
	add(&st.categoryText, &excelize.Style{
		Font:   &excelize.Font{Bold: true, Family: family, Size: 11},
		Fill:   fill(p.CategoryFill),
		Border: borders,
	})
	add(&st.categoryPrice, &excelize.Style{
		Font:         &excelize.Font{Bold: true, Family: family, Size: 11},
		Fill:         fill(p.CategoryFill),
		Border:       borders,
		CustomNumFmt: &priceFmt,
	})
	add(&st.saleText, &excelize.Style{
		Font:   &excelize.Font{Family: family, Size: 10},
		Fill:   fill(p.SaleFill),
		Border: borders,
	})
	add(&st.salePrice, &excelize.Style{
		Font:         &excelize.Font{Family: family, Size: 10},
		Fill:         fill(p.SaleFill),
		Border:       borders,
		CustomNumFmt: &priceFmt,
	})
	add(&st.saleStatus, &excelize.Style{
		Font:   &excelize.Font{Bold: true, Family: family, Size: 10, Color: p.SaleFont},
		Fill:   fill(p.SaleFill),
		Border: borders,
	})

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, err
		}
		*d.id = id
	}
	return st, nil
}

func (s styles) pick(role types.Role, category, sale bool) int {
	price := isPrice(role)
	switch {
	case category && price:
		return s.categoryPrice
	case category:
		return s.categoryText
	case sale && role == types.RoleStatus:
		return s.saleStatus
	case sale && price:
		return s.salePrice
	case sale:
		return s.saleText
	case price:
		return s.price
	default:
		return s.text
	}
}

// isCategoryRow reports a banner that survived cleaning: the code is empty or
// does not start with a digit and the status is empty. A status that only
// repeats the code or name cell is a merged banner copy and counts as empty.
func isCategoryRow(row types.Row, cm types.ColumnMap) bool {
	code := strings.TrimSpace(cm.Value(row, types.RoleCode).String())
	status := strings.TrimSpace(cm.Value(row, types.RoleStatus).String())
	name := strings.TrimSpace(cm.Value(row, types.RoleName).String())
	codeless := code == "" || code[0] < '0' || code[0] > '9'
	if status != "" && (status == code || status == name) {
		status = ""
	}
	return codeless && status == ""
}

func writeCell(f *excelize.File, sheet, axis string, c types.Cell) error {
	switch c.Kind {
	case types.CellNumber:
		return f.SetCellFloat(sheet, axis, c.Number, -1, 64)
	case types.CellText:
		return f.SetCellStr(sheet, axis, c.Text)
	default:
		return nil
	}
}

// displayValue approximates the rendered text of a cell for column sizing
func displayValue(c types.Cell, role types.Role) string {
	if c.Kind == types.CellNumber && isPrice(role) {
		return groupThousands(int64(math.Round(c.Number)))
	}
	return c.String()
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatDocumentDate renders the document date line, for example
// "дата: 5 марта 2025 г."
func FormatDocumentDate(t time.Time) string {
	return fmt.Sprintf("дата: %d %s %d г.", t.Day(), monthsGenitive[t.Month()-1], t.Year())
}
