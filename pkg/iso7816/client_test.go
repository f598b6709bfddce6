package iso7816

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gregLibert/thai-id-reader/pkg/tlv"
)

// scriptedCard replays canned responses and records every command it receives.
type scriptedCard struct {
	responses [][]byte
	errs      []error
	sent      [][]byte
}

func (s *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	s.sent = append(s.sent, append([]byte(nil), cmd...))
	i := len(s.sent) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		return []byte{0x6F, 0x00}, nil
	}
	return s.responses[i], nil
}

func thaiRead(p1, p2, length byte) *CommandAPDU {
	return NewCommandAPDU(Class{Raw: 0x80}, MustInstruction(INS_READ_BINARY), p1, p2, []byte{0x00, length}, 0)
}

func TestClient_Send_GetResponse(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		tlv.Hex("61 05"),
		tlv.Hex("48454C4C4F 9000"),
	}}
	client := NewClient(card)

	trace, err := client.Send(context.Background(), thaiRead(0x00, 0x04, 0x05))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(card.sent) != 2 {
		t.Fatalf("expected 2 transmissions, got %d", len(card.sent))
	}
	if want := tlv.Hex("00 C0 00 00 05"); !bytes.Equal(card.sent[1], want) {
		t.Errorf("GET RESPONSE = %X, want %X", card.sent[1], want)
	}
	if len(trace) != 2 {
		t.Fatalf("trace length = %d, want 2", len(trace))
	}
	if got := string(trace.Payload()); got != "HELLO" {
		t.Errorf("Payload() = %q, want HELLO", got)
	}
	if trace.Status() != SW_NO_ERROR {
		t.Errorf("Status() = %04X", uint16(trace.Status()))
	}
}

func TestClient_Send_GetResponseFollowUpIsFinal(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		tlv.Hex("61 05"),
		tlv.Hex("4142 61 03"),
	}}
	client := NewClient(card)

	trace, err := client.Send(context.Background(), thaiRead(0x00, 0x04, 0x05))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(card.sent) != 2 {
		t.Errorf("client chased a second continuation: %d transmissions", len(card.sent))
	}
	if trace.Status() != NewStatusWord(0x61, 0x03) || string(trace.Payload()) != "AB" {
		t.Errorf("unexpected final response: %s", trace.Last().Response)
	}
}

func TestClient_Send_GetResponseParameters(t *testing.T) {
	tests := []struct {
		name string
		cmd  *CommandAPDU
		opts []Option
		sw2  byte
		want []byte
	}{
		{
			name: "Revision with P2=01",
			cmd:  thaiRead(0x00, 0x11, 0x64),
			opts: []Option{WithGetResponseP2(0x01)},
			sw2:  0x64,
			want: tlv.Hex("00 C0 00 01 64"),
		},
		{
			name: "Logical channel preserved",
			cmd:  NewCommandAPDU(Class{Raw: 0x02}, MustInstruction(INS_SELECT), 0x04, 0x00, []byte{0xA0}, 0),
			sw2:  0x0A,
			want: tlv.Hex("02 C0 00 00 0A"),
		},
		{
			name: "61 00 announces 256 bytes",
			cmd:  thaiRead(0x00, 0x11, 0x00),
			sw2:  0x00,
			want: tlv.Hex("00 C0 00 00 00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &scriptedCard{responses: [][]byte{{0x61, tt.sw2}, tlv.Hex("9000")}}
			if _, err := NewClient(card, tt.opts...).Send(context.Background(), tt.cmd); err != nil {
				t.Fatalf("Send failed: %v", err)
			}
			if len(card.sent) != 2 || !bytes.Equal(card.sent[1], tt.want) {
				t.Errorf("GET RESPONSE = %X, want %X", card.sent, tt.want)
			}
		})
	}
}

func TestClient_Send_ErrorStatusNotRetried(t *testing.T) {
	for _, sw := range [][]byte{tlv.Hex("6A 82"), tlv.Hex("6C 0D"), tlv.Hex("6B 00")} {
		card := &scriptedCard{responses: [][]byte{sw}}

		trace, err := NewClient(card).Send(context.Background(), thaiRead(0x01, 0x9A, 0x14))
		if err != nil {
			t.Fatalf("status words must not be errors: %v", err)
		}
		if len(card.sent) != 1 {
			t.Errorf("SW %X: %d transmissions, want 1", sw, len(card.sent))
		}
		if got := trace.Status(); got != NewStatusWord(sw[0], sw[1]) {
			t.Errorf("Status() = %04X, want %X", uint16(got), sw)
		}
	}
}

func TestClient_Send_TransportErrors(t *testing.T) {
	unplugged := errors.New("card removed")

	t.Run("Transmit fails", func(t *testing.T) {
		card := &scriptedCard{errs: []error{unplugged}}
		_, err := NewClient(card).Send(context.Background(), thaiRead(0x00, 0x04, 0x0D))

		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected *TransportError, got %v", err)
		}
		if !errors.Is(err, unplugged) {
			t.Error("TransportError should unwrap to the transmit error")
		}
	})

	t.Run("GET RESPONSE fails", func(t *testing.T) {
		card := &scriptedCard{responses: [][]byte{tlv.Hex("61 0D")}, errs: []error{nil, unplugged}}
		trace, err := NewClient(card).Send(context.Background(), thaiRead(0x00, 0x04, 0x0D))
		if !errors.Is(err, unplugged) {
			t.Fatalf("expected transmit error, got %v", err)
		}
		if len(trace) != 1 {
			t.Errorf("partial trace length = %d, want 1", len(trace))
		}
	})

	t.Run("Malformed response", func(t *testing.T) {
		card := &scriptedCard{responses: [][]byte{{0x90}}}
		_, err := NewClient(card).Send(context.Background(), thaiRead(0x00, 0x04, 0x0D))

		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected *TransportError, got %v", err)
		}
	})
}

func TestClient_Send_PacesEveryTransmission(t *testing.T) {
	clock := &fakeClock{}
	pacer := clock.pacer(DefaultInterval)

	card := &scriptedCard{responses: [][]byte{tlv.Hex("61 01"), tlv.Hex("31 9000"), tlv.Hex("9000")}}
	client := NewClient(card, WithPacer(pacer))

	ctx := context.Background()
	if _, err := client.Send(ctx, thaiRead(0x00, 0xE1, 0x01)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := client.Send(ctx, thaiRead(0x00, 0x04, 0x0D)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(clock.sleeps) != 3 {
		t.Fatalf("expected one wait per transmission, got %v", clock.sleeps)
	}
	for i, d := range clock.sleeps {
		if d != DefaultInterval {
			t.Errorf("wait %d = %v, want %v", i, d, DefaultInterval)
		}
	}
}

func TestClient_Send_CancelledWhilePacing(t *testing.T) {
	card := &scriptedCard{}
	client := NewClient(card, WithPacer(NewPacer(DefaultInterval)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Send(ctx, thaiRead(0x00, 0x04, 0x0D)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(card.sent) != 0 {
		t.Error("nothing should be transmitted after cancellation")
	}
}
