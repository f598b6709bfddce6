package iso7816

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusWord_Triggering(t *testing.T) {
	tests := []struct {
		sw     StatusWord
		isTrig bool
	}{
		{NewStatusWord(0x62, 0x02), true},  // Lower bound
		{NewStatusWord(0x62, 0x80), true},  // Upper bound
		{NewStatusWord(0x64, 0x10), true},  // Error triggering
		{NewStatusWord(0x62, 0x01), false}, // Invalid (< 02)
		{NewStatusWord(0x62, 0x81), false}, // Invalid (> 80)
	}

	for _, tt := range tests {
		if got := tt.sw.IsTriggeringByCard(); got != tt.isTrig {
			t.Errorf("SW %X IsTriggeringByCard = %v, want %v", uint16(tt.sw), got, tt.isTrig)
		}
	}
}

func TestStatusWord_Classification(t *testing.T) {
	tests := []struct {
		sw         StatusWord
		isSuccess  bool
		isMoreData bool
		isWarning  bool
		isError    bool
	}{
		{SW_NO_ERROR, true, false, false, false},
		{NewStatusWord(0x61, 0x05), true, true, false, false},
		{SW_WARN_EOF_REACHED, false, false, true, false},
		{NewStatusWord(0x63, 0xC2), false, false, true, false},
		{SW_ERR_WRONG_LENGTH, false, false, false, true},
		{SW_ERR_FILE_NOT_FOUND, false, false, false, true},
	}

	for _, tt := range tests {
		if got := tt.sw.IsSuccess(); got != tt.isSuccess {
			t.Errorf("SW %X IsSuccess = %v, want %v", uint16(tt.sw), got, tt.isSuccess)
		}
		if got := tt.sw.IsMoreData(); got != tt.isMoreData {
			t.Errorf("SW %X IsMoreData = %v, want %v", uint16(tt.sw), got, tt.isMoreData)
		}
		if got := tt.sw.IsWarning(); got != tt.isWarning {
			t.Errorf("SW %X IsWarning = %v, want %v", uint16(tt.sw), got, tt.isWarning)
		}
		if got := tt.sw.IsError(); got != tt.isError {
			t.Errorf("SW %X IsError = %v, want %v", uint16(tt.sw), got, tt.isError)
		}
	}
}

func TestStatusWord_Verbose(t *testing.T) {
	tests := []struct {
		sw       StatusWord
		contains string
	}{
		{NewStatusWord(0x62, 0x10), "Card expects query of 16 bytes"},
		{NewStatusWord(0x63, 0xC3), "counter = 3"},
		{NewStatusWord(0x61, 0x20), "32 bytes available"},
		{NewStatusWord(0x6C, 0x05), "correct Le is 5"},
		{SW_ERR_FILE_NOT_FOUND, "[6A82] SW_ERR_FILE_NOT_FOUND"},
		{NewStatusWord(0x69, 0x99), "[6999] Checking Error: Command not allowed"},
	}

	for _, tt := range tests {
		got := tt.sw.Verbose()
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Verbose(%X) = %q; want containing %q", uint16(tt.sw), got, tt.contains)
		}
	}
}

func TestStatusError(t *testing.T) {
	cmd := NewCommandAPDU(Class{Raw: 0x80}, MustInstruction(INS_READ_BINARY), 0x00, 0x04, []byte{0x00, 0x0D}, 0)
	var err error = &StatusError{Command: cmd, Status: SW_ERR_INCORRECT_PARAMS_P1P2}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatal("errors.As should match *StatusError")
	}
	if se.Status != SW_ERR_INCORRECT_PARAMS_P1P2 {
		t.Errorf("Status = %04X", uint16(se.Status))
	}
	if want := "INS_READ_BINARY: card returned [6A86] SW_ERR_INCORRECT_PARAMS_P1P2"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
