package charset

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1251 Encoding = "windows-1251"
	EncodingKOI8R       Encoding = "koi8-r"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding detects the encoding of a byte buffer.
//
// Both single-byte Cyrillic code pages put letters in 0xC0-0xFF but swap the
// cases: Windows-1251 keeps lower case in 0xE0-0xFF, KOI8-R in 0xC0-0xDF. Running
// text is mostly lower case, so the busier half decides.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return EncodingUTF8
	}

	checkLen := len(data)
	if checkLen > 4096 {
		checkLen = 4096
	}

	upperHalf, lowerHalf := 0, 0
	for _, b := range data[:checkLen] {
		switch {
		case b >= 0xE0:
			upperHalf++
		case b >= 0xC0:
			lowerHalf++
		}
	}

	if lowerHalf > upperHalf {
		return EncodingKOI8R
	}
	return EncodingWindows1251
}

// Decode converts a byte buffer from the specified encoding to a UTF-8 string
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	// Valid UTF-8 is never re-decoded, whatever the caller asked for
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoder, err := lookup(enc)
	if err != nil {
		return "", err
	}

	out, err := decoder.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	if enc == EncodingUTF8 || enc == "" {
		return r, nil
	}
	decoder, err := lookup(enc)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, decoder.NewDecoder()), nil
}

func lookup(enc Encoding) (encoding.Encoding, error) {
	switch enc {
	case EncodingWindows1251, "":
		return charmap.Windows1251, nil
	case EncodingKOI8R:
		return charmap.KOI8R, nil
	case EncodingUTF8:
		return encoding.Nop, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}
