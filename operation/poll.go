// Package operation runs blocking operations as explicit poll loops over an injected clock.
package operation

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Condition reports whether a polled operation is finished.
type Condition func(ctx context.Context) (bool, error)

// Step advances a polled operation by one iteration.
type Step func(ctx context.Context) error

// Poller runs steps in a tight loop in the calling goroutine. There is no sleep between
// iterations; anything rate sensitive is expected to gate itself inside the step.
type Poller struct {
	clock clock.Clock
}

// NewPoller returns a Poller using clk for deadlines. A nil clock uses wall time.
func NewPoller(clk clock.Clock) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	return &Poller{clock: clk}
}

// Until calls step until cond holds, checking cond before every step. It only returns early on a
// step or condition error, or when ctx is done.
func (p *Poller) Until(ctx context.Context, cond Condition, step Step) error {
	for {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
	}
}

// UntilDeadline is Until bounded by deadline on the poller's clock. The result only depends on
// the clock: it is true when the loop ends before the deadline, so a condition that first holds at
// or after the deadline still reports false.
func (p *Poller) UntilDeadline(ctx context.Context, deadline time.Time, cond Condition, step Step) (bool, error) {
	for {
		done, err := cond(ctx)
		if err != nil {
			return false, err
		}
		inTime := p.clock.Now().Before(deadline)
		if done || !inTime {
			return inTime, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := step(ctx); err != nil {
			return false, err
		}
	}
}

// UntilTimeout is UntilDeadline with a deadline of now plus timeout.
func (p *Poller) UntilTimeout(ctx context.Context, timeout time.Duration, cond Condition, step Step) (bool, error) {
	return p.UntilDeadline(ctx, p.clock.Now().Add(timeout), cond, step)
}

// For calls step repeatedly until d has elapsed on the poller's clock.
func (p *Poller) For(ctx context.Context, d time.Duration, step Step) error {
	never := func(context.Context) (bool, error) { return false, nil }
	_, err := p.UntilTimeout(ctx, d, never, step)
	return err
}

// Now returns the poller's current time.
func (p *Poller) Now() time.Time {
	return p.clock.Now()
}
