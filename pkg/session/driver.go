// Package session turns card presence events into read sessions.
//
// A Driver consumes events one at a time and hands them to a Handler. The
// CardHandler opens a connection per inserted card, reads the record and
// always closes the connection before the next event is processed.
package session

import (
	"context"
	"fmt"
	"log/slog"
)

// Kind of a presence event.
type Kind int

const (
	Inserted Kind = iota + 1
	Removed
)

func (k Kind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event reports a card entering or leaving a reader.
type Event struct {
	Kind   Kind
	Reader string
}

// Handler reacts to presence changes.
type Handler interface {
	CardInserted(ctx context.Context, reader string)
	CardRemoved(ctx context.Context, reader string)
}

// Driver dispatches events to a Handler serially.
type Driver struct {
	handler Handler
	logger  *slog.Logger
}

// NewDriver creates a Driver. A nil logger discards output.
func NewDriver(h Handler, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{handler: h, logger: logger}
}

// Run processes events until the channel is closed or ctx ends.
// It returns ctx.Err() in the latter case.
func (d *Driver) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.dispatch(ctx, ev)
		}
	}
}

// dispatch keeps the loop alive when a handler panics.
func (d *Driver) dispatch(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic", "event", ev.Kind, "reader", ev.Reader, "panic", r)
		}
	}()

	d.logger.Debug("presence event", "event", ev.Kind, "reader", ev.Reader)

	switch ev.Kind {
	case Inserted:
		d.handler.CardInserted(ctx, ev.Reader)
	case Removed:
		d.handler.CardRemoved(ctx, ev.Reader)
	default:
		d.logger.Warn("unknown presence event", "event", ev.Kind, "reader", ev.Reader)
	}
}
