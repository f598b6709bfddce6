package cardsim

import (
	"fmt"

	"github.com/gregLibert/thai-id-reader/pkg/thaitext"
)

// Profile is the personal data written onto a simulated card.
// Thai fields are encoded as TIS-620, BirthDate is "YYYYMMDD" (Buddhist Era).
type Profile struct {
	CitizenID string
	NameTH    string
	NameEN    string
	BirthDate string
	Gender    byte
	Religion  string
	Address   string

	// ReligionOffset defaults to 0x00E2.
	ReligionOffset uint16
}

// Card layout offsets.
const (
	OffsetCitizenID uint16 = 0x0004
	OffsetNameTH    uint16 = 0x0011
	OffsetNameEN    uint16 = 0x0075
	OffsetBirthDate uint16 = 0x00D9
	OffsetGender    uint16 = 0x00E1
	OffsetReligion  uint16 = 0x00E2
	OffsetAddress   uint16 = 0x1579
)

// Personalize writes p onto the card.
func (c *Card) Personalize(p Profile) error {
	c.Write(OffsetCitizenID, []byte(p.CitizenID))
	c.Write(OffsetNameEN, []byte(p.NameEN))
	c.Write(OffsetBirthDate, []byte(p.BirthDate))
	if p.Gender != 0 {
		c.Write(OffsetGender, []byte{p.Gender})
	}

	religionAt := p.ReligionOffset
	if religionAt == 0 {
		religionAt = OffsetReligion
	}

	for _, f := range []struct {
		offset uint16
		text   string
	}{
		{OffsetNameTH, p.NameTH},
		{religionAt, p.Religion},
		{OffsetAddress, p.Address},
	} {
		raw, err := thaitext.EncodeNative(f.text)
		if err != nil {
			return fmt.Errorf("personalize %04X: %w", f.offset, err)
		}
		c.Write(f.offset, raw)
	}
	return nil
}
