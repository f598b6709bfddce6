package iso7816

import (
	"fmt"
)

// Class Byte (CLA) Structure according to ISO/IEC 7816-4.
//
// Bit 8: Proprietary (1) or Interindustry (0).
// Bit 7: Type of Interindustry (0=First, 1=Further).
// Bit 5: Command Chaining (0=Last/Only, 1=More follow).
//
// 1. First Interindustry Class (00xx xxxx):
//    - Bits 4-3: Secure Messaging.
//    - Bits 2-1: Logical Channel number (0-3).
//
// 2. Further Interindustry Class (01xx xxxx):
//    - Bit 6: Secure Messaging.
//    - Bits 4-1: Logical Channel number minus 4 (channels 4-19).
//
// Proprietary classes (1xxx xxxx) carry no interindustry meaning. Thai ID card
// reads use CLA 0x80.

const (
	claProprietary = 0x80
	claFurther     = 0x40
	claChaining    = 0x10
)

// Class represents the CLA byte of a command.
type Class struct {
	Raw byte
}

// NewClass validates a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}
	return Class{Raw: cla}, nil
}

// IsProprietary reports whether bit 8 is set.
func (c Class) IsProprietary() bool {
	return c.Raw&claProprietary != 0
}

// IsChained reports the command chaining bit of an interindustry class.
func (c Class) IsChained() bool {
	return !c.IsProprietary() && c.Raw&claChaining != 0
}

// Channel returns the logical channel (0-19). Proprietary classes use channel 0.
func (c Class) Channel() uint8 {
	switch {
	case c.IsProprietary():
		return 0
	case c.Raw&claFurther != 0:
		return c.Raw&0x0F + 4
	default:
		return c.Raw & 0x03
	}
}

// Interindustry returns the plain interindustry class (no SM, no chaining)
// addressing the same logical channel as c.
// GET RESPONSE is always sent with it, even after a proprietary command.
func (c Class) Interindustry() Class {
	ch := c.Channel()
	if ch <= 3 {
		return Class{Raw: ch}
	}
	return Class{Raw: claFurther | (ch - 4)}
}

// Verbose returns a human-readable description of the CLA byte.
func (c Class) Verbose() string {
	if c.IsProprietary() {
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	}

	rangeName := "First Interindustry (Ch 0-3)"
	if c.Raw&claFurther != 0 {
		rangeName = "Further Interindustry (Ch 4-19)"
	}

	chaining := "Last or only command"
	if c.IsChained() {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf("Range: %s\nChaining: %s\nLogical Channel: %d", rangeName, chaining, c.Channel())
}
