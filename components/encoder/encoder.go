// Package encoder defines the position feedback a motor reads.
package encoder

import "context"

// An Encoder counts ticks of a motor shaft. The count is signed and unbounded; writers may
// overwrite it at any time.
type Encoder interface {
	// Position returns the current tick count.
	Position(ctx context.Context) (int64, error)

	// SetPosition overwrites the tick count.
	SetPosition(ctx context.Context, ticks int64) error
}
