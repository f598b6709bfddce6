// Package cardsim simulates a Thai national ID card at the APDU level.
//
// The card keeps a flat memory image. A proprietary READ BINARY
// ("80 B0 P1 P2 02 L1 L2") answers "61 LL" and the bytes are collected with
// GET RESPONSE, as with a physical card on T=0.
package cardsim

import (
	"bytes"
	"errors"
	"sync"

	"github.com/gregLibert/thai-id-reader/pkg/iso7816"
)

// ErrRemoved is returned by Transmit once the scripted failure point is reached.
var ErrRemoved = errors.New("cardsim: card removed")

// memorySize covers the address field at 0x1579.
const memorySize = 0x1600

var appletAID = []byte{0xA0, 0x00, 0x00, 0x00, 0x54, 0x48, 0x00, 0x01}

// Card is a simulated card. It is safe for use by one session at a time.
type Card struct {
	mu sync.Mutex

	memory  []byte
	atr     []byte
	pending []byte

	selected     bool
	disconnected bool
	sent         [][]byte

	// Faults makes a read at the given offset answer with the status word.
	Faults map[uint16]iso7816.StatusWord

	// RefuseSelect makes the applet selection fail with 6A82.
	RefuseSelect bool

	// FailAt makes the n-th transmission (1-based) fail with ErrRemoved.
	FailAt int

	// GetResponseP2 is the P2 the card accepts on GET RESPONSE.
	GetResponseP2 byte
}

// New returns a blank card: memory filled with spaces and a standard ATR.
func New() *Card {
	return &Card{
		memory: bytes.Repeat([]byte{' '}, memorySize),
		atr:    []byte{0x3B, 0x78, 0x18, 0x00, 0x00, 0x54, 0x48, 0x20, 0x4E, 0x49, 0x44},
		Faults: map[uint16]iso7816.StatusWord{},
	}
}

// NewLegacy returns a blank card of the revision announcing ATR 3B 67.
func NewLegacy() *Card {
	c := New()
	c.atr = []byte{0x3B, 0x67, 0x00, 0x00, 0x73, 0x20, 0x00, 0x00, 0x54, 0x48}
	c.GetResponseP2 = 0x01
	return c
}

// Write stores data at offset.
func (c *Card) Write(offset uint16, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.memory[offset:], data)
}

// ATR returns the Answer To Reset.
func (c *Card) ATR() []byte {
	return c.atr
}

// Disconnect marks the card as released.
func (c *Card) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

// Disconnected reports whether Disconnect was called.
func (c *Card) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// Sent returns a copy of every command received, in order.
func (c *Card) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Reads returns the offsets of the READ BINARY commands received, in order.
func (c *Card) Reads() []uint16 {
	var offsets []uint16
	for _, cmd := range c.Sent() {
		if len(cmd) >= 4 && cmd[1] == byte(iso7816.INS_READ_BINARY) {
			offsets = append(offsets, uint16(cmd[2])<<8|uint16(cmd[3]))
		}
	}
	return offsets
}

// Transmit answers one command APDU.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sent = append(c.sent, append([]byte(nil), cmd...))
	if c.FailAt > 0 && len(c.sent) >= c.FailAt {
		return nil, ErrRemoved
	}

	if len(cmd) < 4 {
		return status(iso7816.SW_ERR_WRONG_LENGTH), nil
	}

	switch iso7816.InsCode(cmd[1]) {
	case iso7816.INS_SELECT:
		return c.selectApplet(cmd), nil
	case iso7816.INS_READ_BINARY:
		return c.readBinary(cmd), nil
	case iso7816.INS_GET_RESPONSE:
		return c.getResponse(cmd), nil
	default:
		return status(iso7816.SW_ERR_INS_INVALID), nil
	}
}

func (c *Card) selectApplet(cmd []byte) []byte {
	if c.RefuseSelect || len(cmd) < 5 || !bytes.Equal(cmd[5:], appletAID) {
		return status(iso7816.SW_ERR_FILE_NOT_FOUND)
	}
	c.selected = true

	fci := append([]byte{0x6F, 0x0A, 0x84, 0x08}, appletAID...)
	return c.announce(fci)
}

func (c *Card) readBinary(cmd []byte) []byte {
	if cmd[0] != 0x80 || len(cmd) != 7 || cmd[4] != 0x02 {
		return status(iso7816.SW_ERR_WRONG_LENGTH)
	}
	if !c.selected {
		return status(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
	}

	offset := uint16(cmd[2])<<8 | uint16(cmd[3])
	if sw, ok := c.Faults[offset]; ok {
		return status(sw)
	}

	length := int(cmd[5])<<8 | int(cmd[6])
	data := make([]byte, length)
	for i := range data {
		data[i] = ' '
	}
	if int(offset) < len(c.memory) {
		copy(data, c.memory[offset:])
	}
	return c.announce(data)
}

func (c *Card) getResponse(cmd []byte) []byte {
	if c.pending == nil {
		return status(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
	}
	if cmd[3] != c.GetResponseP2 || len(cmd) != 5 {
		return status(iso7816.SW_ERR_WRONG_P1P2)
	}

	le := int(cmd[4])
	if le == 0 {
		le = 256
	}
	data := c.pending
	if len(data) > le {
		data = data[:le]
	}
	c.pending = nil

	return append(append([]byte(nil), data...), 0x90, 0x00)
}

// announce queues data for GET RESPONSE and answers "61 LL".
func (c *Card) announce(data []byte) []byte {
	c.pending = data
	return []byte{0x61, byte(len(data))}
}

func status(sw iso7816.StatusWord) []byte {
	return []byte{sw.SW1(), sw.SW2()}
}
