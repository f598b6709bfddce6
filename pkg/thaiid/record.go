package thaiid

import (
	"fmt"
	"strings"
)

const (
	// Unavailable replaces a field the card did not deliver.
	Unavailable = "N/A"

	// ReligionNotFound is reported when no candidate location held a religion.
	ReligionNotFound = "ไม่ระบุ/ไม่พบข้อมูล"
)

// Gender as stored on the card.
type Gender int

const (
	GenderUnavailable Gender = iota
	GenderMale
	GenderFemale
)

// ParseGender maps the gender byte. Only '1' means male, every other byte
// (including '0' and '2') reads as female.
func ParseGender(payload []byte) Gender {
	if len(payload) == 0 {
		return GenderUnavailable
	}
	if payload[0] == '1' {
		return GenderMale
	}
	return GenderFemale
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "ชาย"
	case GenderFemale:
		return "หญิง"
	default:
		return Unavailable
	}
}

// MarshalYAML renders the Thai label.
func (g Gender) MarshalYAML() (interface{}, error) {
	return g.String(), nil
}

// BirthDate is a calendar date in the Buddhist Era, as stored on the card.
// The zero value means no date was found.
type BirthDate struct {
	Year  int
	Month int
	Day   int
}

// IsZero reports whether no date was found.
func (d BirthDate) IsZero() bool {
	return d == BirthDate{}
}

// GregorianYear converts the Buddhist Era year.
func (d BirthDate) GregorianYear() int {
	if d.IsZero() {
		return 0
	}
	return d.Year - 543
}

// String formats DD/MM/YYYY, or "N/A".
func (d BirthDate) String() string {
	if d.IsZero() {
		return Unavailable
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// MarshalYAML renders the DD/MM/YYYY form.
func (d BirthDate) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Record is the personal data read from one card.
type Record struct {
	CitizenID string    `yaml:"citizen_id"`
	NameTH    string    `yaml:"name_th"`
	NameEN    string    `yaml:"name_en"`
	BirthDate BirthDate `yaml:"birth_date"`
	Gender    Gender    `yaml:"gender"`
	Religion  string    `yaml:"religion"`
	Address   string    `yaml:"address"`
}

// Describe renders the record with the labels printed by card readers in Thailand.
func (r Record) Describe() string {
	var sb strings.Builder
	line := strings.Repeat("-", 65)

	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("เลขบัตรประชาชน      : %s\n", r.CitizenID))
	sb.WriteString(fmt.Sprintf("ชื่อ-นามสกุล (TH)    : %s\n", r.NameTH))
	sb.WriteString(fmt.Sprintf("ชื่อ-นามสกุล (EN)    : %s\n", r.NameEN))
	sb.WriteString(fmt.Sprintf("วันเดือนปีเกิด       : %s\n", r.BirthDate))
	sb.WriteString(fmt.Sprintf("เพศ                 : %s\n", r.Gender))
	sb.WriteString(fmt.Sprintf("ศาสนา               : %s\n", r.Religion))
	sb.WriteString(fmt.Sprintf("ที่อยู่              : %s\n", r.Address))
	sb.WriteString(line)

	return sb.String()
}
