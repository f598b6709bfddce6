package thaiid

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/gregLibert/thai-id-reader/pkg/thaitext"
)

// plausibleReligion accepts non-empty text of at least two characters without digits.
func plausibleReligion(text string) bool {
	if utf8.RuneCountInString(text) < 2 {
		return false
	}
	for _, r := range text {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LocateReligion tries each candidate in order and stops at the first plausible text.
// A candidate answering with an error status is skipped; a transport fault aborts.
func LocateReligion(ctx context.Context, ch Channel, candidates []Field) (string, error) {
	for _, f := range candidates {
		trace, err := ch.Send(ctx, f.Command())
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f, err)
		}
		if trace.Err() != nil {
			continue
		}

		if text := thaitext.DecodeNative(trace.Payload()); plausibleReligion(text) {
			return text, nil
		}
	}
	return ReligionNotFound, nil
}
