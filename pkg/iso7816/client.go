package iso7816

import (
	"context"
	"fmt"
	"log/slog"
)

// CLIENT & PROTOCOL LOGIC:
// The Client is the APDU channel over the physical connection. For every
// logical Send it:
//
// 1. Waits on the Pacer so the hardware gets its minimum inter-command gap.
//
// 2. Transmits the command and parses the R-APDU.
//
// 3. On "61 XX" (Response Available) issues exactly one GET RESPONSE with
//    Le = XX on the same logical channel. The follow-up is taken as final:
//    its payload and status become the result even if it answers 61XX again.
//
// Any other status, success or not, is returned untouched inside the Trace.
// The Client never retries. Only a failing Transmit or a malformed response
// produce an error (*TransportError).

// Transmitter abstracts the physical card connection.
// The returned bytes include the SW1 SW2 trailer.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// TransportError reports a failure of the physical exchange itself.
type TransportError struct {
	Command *CommandAPDU
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transmission error (%s): %v", e.Command.Instruction.Raw, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client manages the high-level communication with the card.
type Client struct {
	Card  Transmitter
	Pacer *Pacer

	// GetResponseP2 is the P2 byte of GET RESPONSE. ISO 7816-4 mandates 00,
	// some card revisions expect 01.
	GetResponseP2 byte

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPacer sets the inter-command pacing policy.
func WithPacer(p *Pacer) Option {
	return func(c *Client) { c.Pacer = p }
}

// WithGetResponseP2 sets the P2 byte used for GET RESPONSE.
func WithGetResponseP2(p2 byte) Option {
	return func(c *Client) { c.GetResponseP2 = p2 }
}

// WithLogger sets the logger used for per-exchange debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new Client instance. Without WithPacer the client does not pace.
func NewClient(card Transmitter, opts ...Option) *Client {
	c := &Client{Card: card}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Send transmits a command and resolves a 61XX continuation.
func (c *Client) Send(ctx context.Context, cmd *CommandAPDU) (Trace, error) {
	resp, err := c.exchange(ctx, cmd)
	if err != nil {
		return nil, err
	}

	trace := Trace{{Command: cmd, Response: resp}}

	if !resp.Status.IsMoreData() {
		return trace, nil
	}

	getResp := NewCommandAPDU(
		cmd.Class.Interindustry(),
		MustInstruction(INS_GET_RESPONSE),
		0x00, c.GetResponseP2,
		nil,
		lengthFromSW2(resp.Status.SW2()),
	)

	follow, err := c.exchange(ctx, getResp)
	if err != nil {
		return trace, err
	}

	return append(trace, Transaction{Command: getResp, Response: follow}), nil
}

func (c *Client) exchange(ctx context.Context, cmd *CommandAPDU) (*ResponseAPDU, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	if err := c.Pacer.Wait(ctx); err != nil {
		return nil, err
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	c.Pacer.Mark()
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: err}
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: err}
	}

	c.logger.Debug("apdu exchange",
		"command", fmt.Sprintf("%X", rawCmd),
		"status", fmt.Sprintf("%04X", uint16(resp.Status)),
		"length", len(resp.Data),
	)

	return resp, nil
}

// lengthFromSW2 maps SW2 onto Ne: in '61XX', XX=00 announces 256 bytes.
func lengthFromSW2(sw2 byte) int {
	if sw2 == 0 {
		return MaxShortLe
	}
	return int(sw2)
}
