// Package fake implements an encoder whose count is moved by hand or by a simulated plant.
package fake

import (
	"context"

	"go.uber.org/atomic"

	"go.viam.com/bricktronics/components/encoder"
)

// Encoder is a tick count that nothing moves but its callers.
type Encoder struct {
	position atomic.Int64
	// FailWith, when set, is returned from every call.
	FailWith error
}

var _ encoder.Encoder = (*Encoder)(nil)

// Position returns the current count.
func (e *Encoder) Position(ctx context.Context) (int64, error) {
	if e.FailWith != nil {
		return 0, e.FailWith
	}
	return e.position.Load(), nil
}

// SetPosition overwrites the count.
func (e *Encoder) SetPosition(ctx context.Context, ticks int64) error {
	if e.FailWith != nil {
		return e.FailWith
	}
	e.position.Store(ticks)
	return nil
}

// Add moves the count by delta and returns the new count.
func (e *Encoder) Add(delta int64) int64 {
	return e.position.Add(delta)
}
