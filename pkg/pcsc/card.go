// Package pcsc connects to Thai ID cards through the PC/SC service.
package pcsc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ebfe/scard"
	"github.com/gregLibert/thai-id-reader/pkg/session"
)

// protocols forces T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57).
const protocols = scard.ProtocolT0 | scard.ProtocolT1

// handle is the subset of *scard.Card used by Card.
type handle interface {
	Transmit(cmd []byte) ([]byte, error)
	Status() (*scard.CardStatus, error)
	Reconnect(mode scard.ShareMode, proto scard.Protocol, init scard.Disposition) error
	Disconnect(d scard.Disposition) error
}

// Card is an open PC/SC connection.
type Card struct {
	h           handle
	atr         []byte
	disposition scard.Disposition
}

// Transmit sends a raw command APDU.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	return c.h.Transmit(cmd)
}

// ATR returns the Answer To Reset read when the connection was opened.
func (c *Card) ATR() []byte {
	return c.atr
}

// Disconnect releases the card with the connector's disposition.
func (c *Card) Disconnect() error {
	return c.h.Disconnect(c.disposition)
}

// Connector opens cards through an established scard context.
type Connector struct {
	// WarmReset resets the card right after connecting and again on disconnect.
	WarmReset bool

	dial   func(reader string) (handle, error)
	logger *slog.Logger
}

// NewConnector creates a Connector over ctx.
func NewConnector(ctx *scard.Context, warmReset bool, logger *slog.Logger) *Connector {
	c := newConnector(func(reader string) (handle, error) {
		card, err := ctx.Connect(reader, scard.ShareShared, protocols)
		if err != nil {
			return nil, err
		}
		return card, nil
	}, logger)
	c.WarmReset = warmReset
	return c
}

func newConnector(dial func(string) (handle, error), logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Connector{dial: dial, logger: logger}
}

// Connect opens the card present in reader.
func (c *Connector) Connect(_ context.Context, reader string) (session.Card, error) {
	h, err := c.dial(reader)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	disposition := scard.LeaveCard
	if c.WarmReset {
		disposition = scard.ResetCard
		if err := h.Reconnect(scard.ShareShared, protocols, scard.ResetCard); err != nil {
			c.release(h, reader)
			return nil, fmt.Errorf("warm reset: %w", err)
		}
	}

	status, err := h.Status()
	if err != nil {
		c.release(h, reader)
		return nil, fmt.Errorf("card status: %w", err)
	}

	c.logger.Debug("card connected", "reader", reader, "protocol", status.ActiveProtocol, "atr", fmt.Sprintf("%X", status.Atr))

	return &Card{h: h, atr: status.Atr, disposition: disposition}, nil
}

func (c *Connector) release(h handle, reader string) {
	if err := h.Disconnect(scard.LeaveCard); err != nil {
		c.logger.Warn("failed to disconnect card", "reader", reader, "err", err)
	}
}
