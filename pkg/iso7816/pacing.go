package iso7816

import (
	"context"
	"time"
)

// DefaultInterval is the inter-command gap the reader hardware needs to
// settle between exchanges.
const DefaultInterval = 400 * time.Millisecond

// Pacer enforces a fixed minimum interval before every transmission.
//
// The interval is measured from the end of the previous exchange. The first
// transmission after the pacer is created waits the full interval, which
// gives the card time to stabilise after the connection was opened.
// This is a scheduling policy, not a retry backoff: the interval never grows.
//
// A nil Pacer or a zero Interval disables pacing.
type Pacer struct {
	Interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	last  time.Time
}

// NewPacer creates a Pacer using the wall clock.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		Interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until the interval since the previous exchange has elapsed.
// It returns the context error if ctx ends first.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.Interval <= 0 {
		return nil
	}

	wait := p.Interval
	if !p.last.IsZero() {
		wait -= p.clock().Sub(p.last)
	}
	if wait <= 0 {
		return nil
	}

	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, wait)
}

// Mark records the end of an exchange.
func (p *Pacer) Mark() {
	if p == nil || p.Interval <= 0 {
		return
	}
	p.last = p.clock()
}

func (p *Pacer) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
