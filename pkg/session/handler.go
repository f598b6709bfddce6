package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gregLibert/thai-id-reader/pkg/iso7816"
	"github.com/gregLibert/thai-id-reader/pkg/thaiid"
)

// Card is an open connection to a card.
type Card interface {
	iso7816.Transmitter
	ATR() []byte
	Disconnect() error
}

// Connector opens a connection to the card present in a reader.
type Connector interface {
	Connect(ctx context.Context, reader string) (Card, error)
}

// Reporter receives the outcome of every session.
type Reporter interface {
	Inserted(s *Session)
	Report(s *Session, rec thaiid.Record)
	Failure(s *Session, err error)
	Removed(reader string)
}

// State of a Session.
type State int

const (
	StateIdle State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session describes one card presence. It is never shared between cards.
type Session struct {
	Reader   string
	ATR      []byte
	Revision thaiid.Revision
	State    State
	Started  time.Time
}

// CardHandler reads a record from every inserted card.
type CardHandler struct {
	connector Connector
	reporter  Reporter
	pace      time.Duration
	logger    *slog.Logger

	current *Session
}

// HandlerOption configures a CardHandler.
type HandlerOption func(*CardHandler)

// WithPace sets the minimum interval between two transmissions.
// Zero disables pacing.
func WithPace(d time.Duration) HandlerOption {
	return func(h *CardHandler) { h.pace = d }
}

// WithLogger sets the logger of the handler and of the sessions it opens.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *CardHandler) { h.logger = l }
}

// NewCardHandler creates a handler pacing at iso7816.DefaultInterval.
func NewCardHandler(c Connector, r Reporter, opts ...HandlerOption) *CardHandler {
	h := &CardHandler{
		connector: c,
		reporter:  r,
		pace:      iso7816.DefaultInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	return h
}

// Current returns the last session, or nil.
func (h *CardHandler) Current() *Session {
	return h.current
}

// CardInserted runs one complete read session.
func (h *CardHandler) CardInserted(ctx context.Context, reader string) {
	s := &Session{Reader: reader, State: StateIdle, Started: time.Now()}
	h.current = s
	h.reporter.Inserted(s)

	card, err := h.connector.Connect(ctx, reader)
	if err != nil {
		s.State = StateClosed
		h.reporter.Failure(s, fmt.Errorf("connect %q: %w", reader, err))
		return
	}
	s.State = StateOpen

	defer func() {
		if err := card.Disconnect(); err != nil {
			h.logger.Warn("failed to disconnect card", "reader", reader, "err", err)
		}
		s.State = StateClosed
	}()

	s.ATR = card.ATR()
	s.Revision = thaiid.DetectRevision(s.ATR)
	h.logger.Info("card session opened", "reader", reader, "atr", fmt.Sprintf("%X", s.ATR), "revision", s.Revision.Name)

	client := iso7816.NewClient(card,
		iso7816.WithPacer(iso7816.NewPacer(h.pace)),
		iso7816.WithGetResponseP2(s.Revision.GetResponseP2),
		iso7816.WithLogger(h.logger),
	)

	rec, err := thaiid.NewReader(client, thaiid.WithLogger(h.logger)).Read(ctx)
	if err != nil {
		h.reporter.Failure(s, err)
		return
	}
	h.reporter.Report(s, rec)
}

// CardRemoved forgets the session of reader.
func (h *CardHandler) CardRemoved(ctx context.Context, reader string) {
	if h.current == nil || h.current.Reader != reader {
		h.logger.Info("card removed without session", "reader", reader)
		return
	}
	h.current = nil
	h.logger.Info("card removed", "reader", reader)
	h.reporter.Removed(reader)
}
