package charset

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func encode(t *testing.T, enc *charmap.Charmap, s string) []byte {
	t.Helper()
	out, err := enc.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestDetectEncoding(t *testing.T) {
	text := "Код товара;Номенклатура;Розничная цена\n12345;краска белая;1000\n"

	tests := []struct {
		name string
		data []byte
		want Encoding
	}{
		{"utf-8", []byte(text), EncodingUTF8},
		{"utf-8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte(text)...), EncodingUTF8},
		{"windows-1251", encode(t, charmap.Windows1251, text), EncodingWindows1251},
		{"koi8-r", encode(t, charmap.KOI8R, text), EncodingKOI8R},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.data))
		})
	}
}

func TestDecode(t *testing.T) {
	text := "Эмаль ПФ-115 белая"

	got, err := Decode(encode(t, charmap.Windows1251, text), EncodingWindows1251)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	got, err = Decode(encode(t, charmap.KOI8R, text), EncodingKOI8R)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	got, err = Decode(append([]byte{0xEF, 0xBB, 0xBF}, []byte(text)...), EncodingWindows1251)
	require.NoError(t, err)
	assert.Equal(t, text, got, "valid UTF-8 is returned as-is without the BOM")

	_, err = Decode([]byte{0xFF, 0xFE}, Encoding("ebcdic"))
	assert.Error(t, err)
}

func TestToUTF8Reader(t *testing.T) {
	text := "Распродажа"
	r, err := ToUTF8Reader(bytes.NewReader(encode(t, charmap.Windows1251, text)), EncodingWindows1251)
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, text, string(out))
}
