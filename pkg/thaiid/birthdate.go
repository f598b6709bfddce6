package thaiid

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/gregLibert/thai-id-reader/pkg/thaitext"
)

var birthDigits = regexp.MustCompile(`[0-9]{8}`)

// FindBirthDate returns the first run of eight digits in text read as YYYYMMDD.
// A longer run yields its first eight digits.
func FindBirthDate(text string) BirthDate {
	m := birthDigits.FindString(text)
	if m == "" {
		return BirthDate{}
	}

	year, _ := strconv.Atoi(m[0:4])
	month, _ := strconv.Atoi(m[4:6])
	day, _ := strconv.Atoi(m[6:8])

	return BirthDate{Year: year, Month: month, Day: day}
}

// ExtractBirthDate reads the window once and scans it for a date.
// A status fault is a miss; only a transport fault is returned.
func ExtractBirthDate(ctx context.Context, ch Channel, window Field) (BirthDate, error) {
	trace, err := ch.Send(ctx, window.Command())
	if err != nil {
		return BirthDate{}, fmt.Errorf("read %s: %w", window.Name, err)
	}
	if trace.Err() != nil {
		return BirthDate{}, nil
	}

	return FindBirthDate(thaitext.Literal(trace.Payload())), nil
}
