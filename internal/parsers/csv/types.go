package csv

import "github.com/price-standard/price-service/internal/parsers/charset"

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// LoaderOptions represents CSV loader options
type LoaderOptions struct {
	// Delimiter is detected from the content when empty
	Delimiter CsvDelimiter `json:"delimiter,omitempty"`
	// Encoding is detected from the content when empty
	Encoding charset.Encoding `json:"encoding,omitempty"`
	// QuoteChar defaults to a double quote
	QuoteChar rune `json:"quoteChar,omitempty"`
}

// DefaultOptions returns default CSV loader options
func DefaultOptions() LoaderOptions {
	return LoaderOptions{
		QuoteChar: '"',
	}
}
