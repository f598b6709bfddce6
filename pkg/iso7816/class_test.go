package iso7816

import (
	"strings"
	"testing"
)

func TestNewClass(t *testing.T) {
	tests := []struct {
		name    string
		cla     byte
		wantErr bool
		check   func(Class) bool
	}{
		{
			name:    "Reserved FF",
			cla:     0xFF,
			wantErr: true,
		},
		{
			name: "First Interindustry - Ch 0",
			cla:  0b0_0_00_0_00,
			check: func(c Class) bool {
				return !c.IsProprietary() && c.Channel() == 0 && !c.IsChained()
			},
		},
		{
			name: "First Interindustry - Ch 3, Chaining",
			cla:  0b0_0_11_1_11,
			check: func(c Class) bool {
				return c.IsChained() && c.Channel() == 3
			},
		},
		{
			name: "Further Interindustry - Ch 19",
			cla:  0b0_1_1_1_1111,
			check: func(c Class) bool {
				return c.IsChained() && c.Channel() == 19
			},
		},
		{
			name: "Proprietary Class (Thai ID reads)",
			cla:  0x80,
			check: func(c Class) bool {
				return c.IsProprietary() && !c.IsChained() && c.Channel() == 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClass(tt.cla)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClass(0x%02X) error = %v, wantErr %v", tt.cla, err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(got) {
				t.Errorf("NewClass(0x%02X) failed validation: %+v", tt.cla, got)
			}
		})
	}
}

func TestClass_Interindustry(t *testing.T) {
	tests := []struct {
		cla  byte
		want byte
	}{
		{0x80, 0x00}, // proprietary -> basic channel
		{0x00, 0x00},
		{0x1B, 0x03}, // chaining + SM dropped, channel 3 kept
		{0x45, 0x45}, // further interindustry channel 9
		{0x7F, 0x4F}, // channel 19 without SM/chaining
	}

	for _, tt := range tests {
		got := Class{Raw: tt.cla}.Interindustry()
		if got.Raw != tt.want {
			t.Errorf("Class(0x%02X).Interindustry() = 0x%02X, want 0x%02X", tt.cla, got.Raw, tt.want)
		}
	}
}

func TestClass_Verbose(t *testing.T) {
	if got := (Class{Raw: 0x80}).Verbose(); got != "Class: Proprietary (0x80)" {
		t.Errorf("Verbose() = %q", got)
	}

	got := Class{Raw: 0x41}.Verbose()
	for _, part := range []string{"Further Interindustry", "Logical Channel: 5"} {
		if !strings.Contains(got, part) {
			t.Errorf("Verbose() = %q; want containing %q", got, part)
		}
	}
}
