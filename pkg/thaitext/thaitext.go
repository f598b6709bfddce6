// Package thaitext converts raw card payloads into text.
//
// Thai national ID cards store two kinds of text:
//
//  1. Thai-language fields (name, address, religion) encoded in TIS-620,
//     the single-byte Thai national standard.
//  2. Latin fields (citizen ID, English name, dates) stored as plain bytes
//     that map one-to-one onto code points.
//
// In both cases the card pads unused positions with spaces and uses '#' as
// a separator between name components. Decoding trims the surrounding
// whitespace and then turns every '#' into a space.
//
// Both decoders are total: any byte sequence yields a string.
package thaitext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Separator is the padding/separator byte written by the card between name parts.
const Separator = '#'

// Windows-874 is a superset of TIS-620: it assigns the C1 range (0x80-0x9F)
// and 0xA0 (NBSP), which TIS-620 leaves undefined. Those bytes are treated as
// decode faults so that the native decoder accepts only the TIS-620 repertoire.
const (
	tisGapLow  = 0x80
	tisGapHigh = 0xA0
)

// DecodeNative interprets b as TIS-620 text.
// It returns "" if b contains a byte outside the TIS-620 repertoire.
func DecodeNative(b []byte) string {
	for _, c := range b {
		if c >= tisGapLow && c <= tisGapHigh {
			return ""
		}
	}

	out, err := charmap.Windows874.NewDecoder().Bytes(b)
	if err != nil || strings.ContainsRune(string(out), utf8.RuneError) {
		return ""
	}

	return normalize(string(out))
}

// DecodeASCII maps every byte to the code point of the same value.
func DecodeASCII(b []byte) string {
	return normalize(Literal(b))
}

// EncodeNative encodes s as TIS-620. It fails on any rune TIS-620 cannot represent.
func EncodeNative(s string) ([]byte, error) {
	out, err := charmap.Windows874.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("tis-620 encode: %w", err)
	}

	for i, c := range out {
		if c >= tisGapLow && c <= tisGapHigh {
			return nil, fmt.Errorf("tis-620 encode: byte %02X at offset %d is not in TIS-620", c, i)
		}
	}

	return out, nil
}

// Literal returns the bytes as characters without trimming or separator
// substitution. Pattern scans over raw windows use it so offsets are kept.
func Literal(b []byte) string {
	// ISO 8859-1 defines all 256 byte values, the decoder cannot fail.
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(out)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), string(Separator), " ")
}
