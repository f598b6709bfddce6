package iso7816

import (
	"fmt"
)

// Instruction Byte (INS) Logic according to ISO/IEC 7816-4.
//
// 1. Data Encoding (Bit 1):
//    In the interindustry range, bit 1 set means the data field is BER-TLV encoded.
//    Example: READ BINARY (0xB0) vs READ BINARY (BER-TLV) (0xB1).
//
// 2. Reserved Ranges:
//    INS values 0x6X and 0x9X are invalid. They are reserved for SW1 values and
//    transport procedure bytes (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes used by this package.
const (
	INS_SELECT          InsCode = 0xA4
	INS_READ_BINARY     InsCode = 0xB0
	INS_READ_BINARY_BER InsCode = 0xB1
	INS_READ_RECORD     InsCode = 0xB2
	INS_GET_RESPONSE    InsCode = 0xC0
	INS_GET_DATA        InsCode = 0xCA
)

var insNames = map[InsCode]string{
	INS_SELECT:          "INS_SELECT",
	INS_READ_BINARY:     "INS_READ_BINARY",
	INS_READ_BINARY_BER: "INS_READ_BINARY_BER",
	INS_READ_RECORD:     "INS_READ_RECORD",
	INS_GET_RESPONSE:    "INS_GET_RESPONSE",
	INS_GET_DATA:        "INS_GET_DATA",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(i))
}

// Instruction represents the parsed INS byte.
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction, rejecting the reserved '6X' and '9X' values.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := byte(ins) & 0xF0
	if highNibble == 0x60 || highNibble == 0x90 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: byte(ins)&0x01 != 0,
	}, nil
}

// MustInstruction is like NewInstruction but panics on reserved values.
// It is meant for package-level command tables built from constants.
func MustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw.String(), format)
}
