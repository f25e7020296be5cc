package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/price-standard/price-service/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Loader reads an XLSX workbook into a typed, rectangular grid
type Loader struct {
	options LoaderOptions
}

// NewLoader creates a new XLSX loader
func NewLoader(options LoaderOptions) *Loader {
	return &Loader{options: options}
}

// LoadFile loads the sheet from a workbook on disk
func (l *Loader) LoadFile(path string) (*types.Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &types.FormatError{Source: path, Reason: "cannot open file", Err: err}
	}
	defer file.Close()

	return l.load(file, path)
}

// Load loads the sheet from workbook content
func (l *Loader) Load(content []byte, filename string) (*types.Sheet, error) {
	return l.load(bytes.NewReader(content), filename)
}

func (l *Loader) load(r io.Reader, source string) (*types.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &types.FormatError{Source: source, Reason: "not an xlsx workbook", Err: err}
	}
	defer f.Close()

	sheetName, err := l.selectSheet(f)
	if err != nil {
		return nil, err
	}

	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &types.FormatError{Source: source, Reason: fmt.Sprintf("cannot read sheet %q", sheetName), Err: err}
	}

	width := 0
	for _, r := range raw {
		if len(r) > width {
			width = len(r)
		}
	}

	sheet := &types.Sheet{
		Name:  sheetName,
		Rows:  make([]types.Row, len(raw)),
		Width: width,
	}

	for i, r := range raw {
		cells := make([]types.Cell, width)
		for j, value := range r {
			cells[j] = l.typedCell(f, sheetName, i, j, value)
		}
		sheet.Rows[i] = types.Row{Source: i + 1, Cells: cells}
	}

	if l.options.ResolveMerged {
		if err := resolveMerged(f, sheet); err != nil {
			return nil, &types.FormatError{Source: source, Reason: "cannot read merged ranges", Err: err}
		}
	}

	log.Debug().
		Str("source", source).
		Str("sheet", sheetName).
		Int("rows", len(sheet.Rows)).
		Int("width", sheet.Width).
		Int("merged", len(sheet.Merges)).
		Msg("Loaded xlsx sheet")

	return sheet, nil
}

// selectSheet picks the requested sheet, else the active one, else the first
func (l *Loader) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", &types.SheetNotFoundError{}
	}

	if l.options.Sheet != "" {
		for _, name := range sheetList {
			if name == l.options.Sheet {
				return name, nil
			}
		}
		return "", &types.SheetNotFoundError{Sheet: l.options.Sheet, Available: sheetList}
	}

	active := f.GetActiveSheetIndex()
	if name := f.GetSheetName(active); name != "" {
		return name, nil
	}
	return sheetList[0], nil
}

// typedCell converts a raw cell value into a typed cell. Stored strings stay text
// even when they look numeric, so codes like "00123" keep their leading zeros.
func (l *Loader) typedCell(f *excelize.File, sheet string, row, col int, value string) types.Cell {
	if strings.TrimSpace(value) == "" {
		return types.Cell{}
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err == nil {
		if cellType, err := f.GetCellType(sheet, axis); err == nil {
			switch cellType {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
				return types.Text(value)
			}
		}
	}

	if num, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return types.Number(num)
	}
	return types.Text(value)
}

// resolveMerged replicates each merged range's top-left value across the range
func resolveMerged(f *excelize.File, sheet *types.Sheet) error {
	merged, err := f.GetMergeCells(sheet.Name)
	if err != nil {
		return err
	}

	for _, mc := range merged {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return err
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return err
		}

		rng := types.MergedRange{
			StartRow: startRow - 1,
			StartCol: startCol - 1,
			EndRow:   endRow - 1,
			EndCol:   endCol - 1,
		}
		sheet.Merges = append(sheet.Merges, rng)

		top := cellAt(sheet, rng.StartRow, rng.StartCol)
		if top.IsEmpty() {
			continue
		}
		for len(sheet.Rows) <= rng.EndRow {
			sheet.Rows = append(sheet.Rows, types.Row{Source: len(sheet.Rows) + 1})
		}
		for r := rng.StartRow; r <= rng.EndRow; r++ {
			for c := rng.StartCol; c <= rng.EndCol; c++ {
				sheet.Rows[r] = sheet.Rows[r].With(c, top)
				if c+1 > sheet.Width {
					sheet.Width = c + 1
				}
			}
		}
	}

	padRows(sheet)
	return nil
}

func cellAt(sheet *types.Sheet, row, col int) types.Cell {
	if row < 0 || row >= len(sheet.Rows) {
		return types.Cell{}
	}
	return sheet.Rows[row].Cell(col)
}

func padRows(sheet *types.Sheet) {
	for i, r := range sheet.Rows {
		if len(r.Cells) < sheet.Width {
			cells := make([]types.Cell, sheet.Width)
			copy(cells, r.Cells)
			sheet.Rows[i] = types.Row{Source: r.Source, Cells: cells}
		}
	}
}
