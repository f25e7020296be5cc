package csv

import (
	"strconv"
	"strings"

	"github.com/price-standard/price-service/internal/parsers/charset"
	"github.com/price-standard/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// Loader reads a CSV export of a price list into a typed, rectangular grid
type Loader struct {
	options LoaderOptions
}

// NewLoader creates a new CSV loader
func NewLoader(options LoaderOptions) *Loader {
	if options.QuoteChar == 0 {
		options.QuoteChar = '"'
	}
	return &Loader{options: options}
}

// Load decodes and splits CSV content. The sheet is named after the file.
func (l *Loader) Load(content []byte, filename string) (*types.Sheet, error) {
	opts := l.options

	if opts.Encoding == "" {
		opts.Encoding = charset.DetectEncoding(content)
	}

	decoded, err := charset.Decode(content, opts.Encoding)
	if err != nil {
		return nil, &types.FormatError{Source: filename, Reason: "cannot decode text", Err: err}
	}
	if strings.ContainsRune(decoded, 0) {
		return nil, &types.FormatError{Source: filename, Reason: "binary content is not csv"}
	}

	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}
	delimRune := []rune(string(opts.Delimiter))[0]

	lines := splitLines(decoded)
	// Trailing newline leaves one empty line behind
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	sheet := &types.Sheet{
		Name: filename,
		Rows: make([]types.Row, 0, len(lines)),
	}

	for i, line := range lines {
		var fields []string
		if strings.TrimSpace(line) != "" {
			fields = SplitCSVLine(line, delimRune, opts.QuoteChar)
		}

		cells := make([]types.Cell, len(fields))
		for j, field := range fields {
			cells[j] = typedCell(field)
		}
		if len(cells) > sheet.Width {
			sheet.Width = len(cells)
		}
		sheet.Rows = append(sheet.Rows, types.Row{Source: i + 1, Cells: cells})
	}

	for i, r := range sheet.Rows {
		if len(r.Cells) < sheet.Width {
			cells := make([]types.Cell, sheet.Width)
			copy(cells, r.Cells)
			sheet.Rows[i] = types.Row{Source: r.Source, Cells: cells}
		}
	}

	log.Debug().
		Str("source", filename).
		Str("encoding", string(opts.Encoding)).
		Str("delimiter", string(opts.Delimiter)).
		Int("rows", len(sheet.Rows)).
		Int("width", sheet.Width).
		Msg("Loaded csv sheet")

	return sheet, nil
}

// typedCell turns plain decimal fields into numbers. Fields with a leading zero
// stay text so product codes survive.
func typedCell(field string) types.Cell {
	value := strings.TrimSpace(field)
	if value == "" {
		return types.Cell{}
	}
	if len(value) > 1 && value[0] == '0' && value[1] != '.' && value[1] != ',' {
		return types.Text(value)
	}
	if !strings.ContainsAny(value[:1], "0123456789-+.") {
		return types.Text(value)
	}
	if num, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64); err == nil {
		return types.Number(num)
	}
	return types.Text(value)
}

// splitLines splits content into lines with normalized line endings
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}
