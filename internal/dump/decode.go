package dump

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw wrapper output to a string. The wrapper writes
// UTF-16LE when its output is redirected, with or without a byte order
// mark; plain UTF-8 output is passed through.
func Decode(raw []byte) string {
	if !looksUTF16(raw) {
		return string(raw)
	}

	dec := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func looksUTF16(raw []byte) bool {
	if bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		return true
	}
	if len(raw) < 2 || len(raw)%2 != 0 {
		return false
	}
	// ASCII text encoded as UTF-16LE has a zero in every odd byte.
	zeros := 0
	for i := 1; i < len(raw); i += 2 {
		if raw[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= len(raw)/2
}
