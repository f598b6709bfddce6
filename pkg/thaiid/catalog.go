package thaiid

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/thai-id-reader/pkg/iso7816"
)

// AppletAID identifies the Thai national ID applet.
var AppletAID = []byte{0xA0, 0x00, 0x00, 0x00, 0x54, 0x48, 0x00, 0x01}

// Field locates one element of the card file.
// It is read with "80 B0 P1 P2 02 L1 L2": P1P2 is the offset and the
// two data bytes carry the record length.
type Field struct {
	Name   string
	Offset uint16
	Length uint16
}

// Command builds the proprietary READ BINARY for the field.
func (f Field) Command() *iso7816.CommandAPDU {
	return iso7816.NewCommandAPDU(
		iso7816.Class{Raw: 0x80},
		iso7816.MustInstruction(iso7816.INS_READ_BINARY),
		byte(f.Offset>>8), byte(f.Offset),
		[]byte{byte(f.Length >> 8), byte(f.Length)},
		0,
	)
}

func (f Field) String() string {
	return fmt.Sprintf("%s@%04X+%d", f.Name, f.Offset, f.Length)
}

// Catalog is the static table of everything read from the card.
type Catalog struct {
	CitizenID   Field
	NameTH      Field
	NameEN      Field
	BirthWindow Field
	Gender      Field
	Address     Field

	// ReligionCandidates are tried in order, the first plausible text wins.
	ReligionCandidates []Field
}

// DefaultCatalog returns the layout shared by all known card revisions.
func DefaultCatalog() Catalog {
	return Catalog{
		CitizenID:   Field{Name: "citizen_id", Offset: 0x0004, Length: 0x0D},
		NameTH:      Field{Name: "name_th", Offset: 0x0011, Length: 0x64},
		NameEN:      Field{Name: "name_en", Offset: 0x0075, Length: 0x64},
		BirthWindow: Field{Name: "birth_window", Offset: 0x00D0, Length: 0x20},
		Gender:      Field{Name: "gender", Offset: 0x00E1, Length: 0x01},
		Address:     Field{Name: "address", Offset: 0x1579, Length: 0x64},
		ReligionCandidates: []Field{
			{Name: "religion", Offset: 0x00E2, Length: 0x14},
			{Name: "religion", Offset: 0x019A, Length: 0x14},
			{Name: "religion", Offset: 0x011A, Length: 0x14},
		},
	}
}

// SelectCommand returns "00 A4 04 00 08 A0 00 00 00 54 48 00 01".
func SelectCommand() *iso7816.CommandAPDU {
	return iso7816.SelectByAID(iso7816.Class{Raw: 0x00}, AppletAID)
}

// Revision captures the per-revision channel parameters.
type Revision struct {
	Name          string
	GetResponseP2 byte
}

var (
	RevisionStandard = Revision{Name: "standard", GetResponseP2: 0x00}
	RevisionLegacy   = Revision{Name: "3B67", GetResponseP2: 0x01}
)

// DetectRevision picks the revision announced by the card's ATR.
func DetectRevision(atr []byte) Revision {
	if bytes.HasPrefix(atr, []byte{0x3B, 0x67}) {
		return RevisionLegacy
	}
	return RevisionStandard
}
