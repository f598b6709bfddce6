package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Fields renders every populated tagged field of s as "    - prefix.Name (tag): value".
// The `fmt` struct tag selects the value rendering: "ascii", "int" or hex (default).
// Uncollected packets from a ",unknown" field are listed last.
func Fields(prefix string, s interface{}) []string {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	typ := val.Type()

	var lines []string
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)

		if unknown, ok := field.Interface().([]bertlv.TLV); ok {
			for _, p := range unknown {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %X", prefix, strings.ToUpper(p.Tag), rawValue(p)))
			}
			continue
		}

		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 || field.Len() == 0 {
			continue
		}

		name := sf.Name
		if tag := sf.Tag.Get("tlv"); tag != "" {
			name = fmt.Sprintf("%s (%s)", name, tag)
		}
		lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, name, FormatValue(field.Bytes(), sf.Tag.Get("fmt"))))
	}
	return lines
}

// FormatValue renders data as hex, optionally followed by an ASCII or integer reading.
func FormatValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "int":
		var integer int
		for _, b := range data {
			integer = (integer << 8) | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	default:
		return fmt.Sprintf("%X", data)
	}
}
