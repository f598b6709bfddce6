// Package tlv provides helpers to decode BER-TLV (Basic Encoding Rules -
// Tag-Length-Value) data and to map it onto Go structures using struct tags.
//
// A field tagged `tlv:"84"` receives the value of tag 84. A field of type
// []bertlv.TLV tagged `tlv:",unknown"` collects the packets no other field
// claimed. Only []byte fields are mapped; constructed tags are re-encoded.
package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Decode parses raw BER-TLV data.
func Decode(data []byte) ([]bertlv.TLV, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data cannot be parsed")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("bertlv decode failed: %w", err)
	}
	return packets, nil
}

// Find returns the raw value of the first packet carrying tag.
func Find(packets []bertlv.TLV, tag string) ([]byte, bool) {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return rawValue(p), true
		}
	}
	return nil, false
}

// Unmarshal parses raw BER-TLV data into the struct pointed to by target.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := Decode(data)
	if err != nil {
		return err
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps pre-decoded packets onto the struct pointed to by target.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct")
	}
	v = v.Elem()
	t := v.Type()

	consumed := make([]bool, len(packets))
	unknown := -1

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("tlv")
		if tag == "" {
			continue
		}
		if tag == ",unknown" {
			unknown = i
			continue
		}

		field := v.Field(i)
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("field %s: only []byte fields can carry a tlv tag", t.Field(i).Name)
		}

		for idx, p := range packets {
			if !consumed[idx] && strings.EqualFold(p.Tag, tag) {
				field.SetBytes(rawValue(p))
				consumed[idx] = true
				break
			}
		}
	}

	if unknown < 0 {
		return nil
	}

	var leftovers []bertlv.TLV
	for idx, p := range packets {
		if !consumed[idx] {
			leftovers = append(leftovers, p)
		}
	}
	if len(leftovers) > 0 {
		v.Field(unknown).Set(reflect.ValueOf(leftovers))
	}
	return nil
}

func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}
