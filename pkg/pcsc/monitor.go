package pcsc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/thai-id-reader/pkg/session"
)

// DefaultPoll bounds every GetStatusChange call.
const DefaultPoll = time.Second

// StatusSource is the subset of *scard.Context used for presence monitoring.
type StatusSource interface {
	ListReaders() ([]string, error)
	GetStatusChange(rs []scard.ReaderState, timeout time.Duration) error
}

// ListReaders returns the readers whose name contains filter.
// An empty filter keeps every reader; no reader at all is not an error.
func ListReaders(src StatusSource, filter string) ([]string, error) {
	readers, err := src.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}

	if filter == "" {
		return readers, nil
	}
	var out []string
	for _, r := range readers {
		if strings.Contains(strings.ToLower(r), strings.ToLower(filter)) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Monitor turns PC/SC reader state changes into presence events.
type Monitor struct {
	src    StatusSource
	poll   time.Duration
	filter string
	logger *slog.Logger

	states  map[string]scard.StateFlag
	present map[string]bool
	sleep   func(ctx context.Context, d time.Duration)
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithPoll sets the GetStatusChange timeout.
func WithPoll(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.poll = d }
}

// WithReaderFilter only watches readers whose name contains filter.
func WithReaderFilter(filter string) MonitorOption {
	return func(m *Monitor) { m.filter = filter }
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor creates a Monitor over src.
func NewMonitor(src StatusSource, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		src:     src,
		poll:    DefaultPoll,
		states:  map[string]scard.StateFlag{},
		present: map[string]bool{},
		sleep:   sleep,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m
}

// Run emits events on out until ctx ends, then closes out.
// Each cycle emits the insertions before the removals.
func (m *Monitor) Run(ctx context.Context, out chan<- session.Event) error {
	defer close(out)

	for ctx.Err() == nil {
		inserted, removed, err := m.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			m.logger.Warn("reader status poll failed", "err", err)
			m.sleep(ctx, m.poll)
			continue
		}

		for _, ev := range events(session.Inserted, inserted, session.Removed, removed) {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return ctx.Err()
}

// Poll runs one status cycle and returns the readers whose card appeared and disappeared.
func (m *Monitor) Poll(ctx context.Context) (inserted, removed []string, err error) {
	readers, err := ListReaders(m.src, m.filter)
	if err != nil {
		return nil, nil, err
	}

	known := make(map[string]bool, len(readers))
	for _, r := range readers {
		known[r] = true
	}
	for r := range m.present {
		if !known[r] {
			removed = append(removed, r)
			delete(m.present, r)
			delete(m.states, r)
		}
	}

	if len(readers) == 0 {
		m.sleep(ctx, m.poll)
		return nil, removed, nil
	}

	rs := make([]scard.ReaderState, len(readers))
	for i, r := range readers {
		current, ok := m.states[r]
		if !ok {
			current = scard.StateUnaware
		}
		rs[i] = scard.ReaderState{Reader: r, CurrentState: current}
	}

	err = m.src.GetStatusChange(rs, m.poll)
	if errors.Is(err, scard.ErrTimeout) {
		return nil, removed, nil
	}
	if err != nil {
		return nil, removed, fmt.Errorf("get status change: %w", err)
	}

	for _, st := range rs {
		m.states[st.Reader] = st.EventState &^ scard.StateChanged

		now := st.EventState&scard.StatePresent != 0 && st.EventState&scard.StateMute == 0
		switch was := m.present[st.Reader]; {
		case now && !was:
			inserted = append(inserted, st.Reader)
		case !now && was:
			removed = append(removed, st.Reader)
		}
		m.present[st.Reader] = now
	}
	return inserted, removed, nil
}

func events(k1 session.Kind, r1 []string, k2 session.Kind, r2 []string) []session.Event {
	out := make([]session.Event, 0, len(r1)+len(r2))
	for _, r := range r1 {
		out = append(out, session.Event{Kind: k1, Reader: r})
	}
	for _, r := range r2 {
		out = append(out, session.Event{Kind: k2, Reader: r})
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
