// Package incremental implements a quadrature encoder read from two digital interrupts.
package incremental

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/bricktronics/components/board"
	"go.viam.com/bricktronics/components/encoder"
	"go.viam.com/bricktronics/logging"
	"go.viam.com/bricktronics/utils"
)

// Pins names the encoder's two channels.
type Pins struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Config describes an incremental encoder.
type Config struct {
	Pins Pins `json:"pins"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Pins.A == "" {
		return errors.Errorf("%s: expected nonempty string for a", path)
	}
	if conf.Pins.B == "" {
		return errors.Errorf("%s: expected nonempty string for b", path)
	}
	if conf.Pins.A == conf.Pins.B {
		return errors.Errorf("%s: a and b must be different pins", path)
	}
	return nil
}

// Encoder counts every edge of both channels, four ticks per quadrature cycle.
type Encoder struct {
	A, B     board.DigitalInterrupt
	position atomic.Int64

	logger  logging.Logger
	workers utils.StoppableWorkers
}

var _ encoder.Encoder = (*Encoder)(nil)

// NewIncrementalEncoder looks up both interrupts on the board and starts counting.
func NewIncrementalEncoder(
	ctx context.Context,
	b board.Interrupts,
	conf Config,
	logger logging.Logger,
) (*Encoder, error) {
	if err := conf.Validate("encoder"); err != nil {
		return nil, err
	}
	a, err := b.DigitalInterruptByName(conf.Pins.A)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot find pin (%s) for incremental encoder", conf.Pins.A)
	}
	bInt, err := b.DigitalInterruptByName(conf.Pins.B)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot find pin (%s) for incremental encoder", conf.Pins.B)
	}
	e := &Encoder{A: a, B: bInt, logger: logger}
	if err := e.start(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// State Transition Table
//
//	+---------------+----+----+----+----+
//	| pState/nState | 00 | 01 | 10 | 11 |
//	+---------------+----+----+----+----+
//	|       00      | 0  | -1 | +1 | x  |
//	+---------------+----+----+----+----+
//	|       01      | +1 | 0  | x  | -1 |
//	+---------------+----+----+----+----+
//	|       10      | -1 | x  | 0  | +1 |
//	+---------------+----+----+----+----+
//	|       11      | x  | +1 | -1 | 0  |
//	+---------------+----+----+----+----+
//
// 0 -> same state
// x -> impossible state, ignored
func transition(pState, nState int) int64 {
	switch (pState << 2) | nState {
	case 0b0001, 0b0111, 0b1000, 0b1110:
		return -1
	case 0b0010, 0b0100, 0b1011, 0b1101:
		return 1
	default:
		return 0
	}
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}

func (e *Encoder) start(ctx context.Context) error {
	aHigh, err := e.A.Value(ctx)
	if err != nil {
		return errors.Wrap(err, "reading a level")
	}
	bHigh, err := e.B.Value(ctx)
	if err != nil {
		return errors.Wrap(err, "reading b level")
	}
	aLevel, bLevel := level(aHigh), level(bHigh)

	chanA := make(chan board.Edge)
	chanB := make(chan board.Edge)
	e.A.AddCallback(chanA)
	e.B.AddCallback(chanB)

	e.workers = utils.NewStoppableWorkers(func(cancelCtx context.Context) {
		defer unsubscribe(e.A, chanA, e.B, chanB)

		pState := aLevel | (bLevel << 1)
		for {
			select {
			case <-cancelCtx.Done():
				return
			case edge := <-chanA:
				aLevel = level(edge.High)
			case edge := <-chanB:
				bLevel = level(edge.High)
			}
			nState := aLevel | (bLevel << 1)
			if pState == nState {
				continue
			}
			delta := transition(pState, nState)
			if delta == 0 {
				// a skipped state means an edge was missed; resync without counting
				e.logger.Debugw("invalid quadrature transition", "from", pState, "to", nState)
			} else {
				e.position.Add(delta)
			}
			pState = nState
		}
	})
	return nil
}

// unsubscribe removes both callbacks while discarding edges, so a Tick that is mid send can finish.
func unsubscribe(a board.DigitalInterrupt, chanA chan board.Edge, b board.DigitalInterrupt, chanB chan board.Edge) {
	removed := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(removed)
		a.RemoveCallback(chanA)
		b.RemoveCallback(chanB)
	})
	for {
		select {
		case <-removed:
			return
		case <-chanA:
		case <-chanB:
		}
	}
}

// Position returns the current tick count.
func (e *Encoder) Position(ctx context.Context) (int64, error) {
	return e.position.Load(), nil
}

// SetPosition overwrites the tick count.
func (e *Encoder) SetPosition(ctx context.Context, ticks int64) error {
	e.position.Store(ticks)
	return nil
}

// Close stops counting.
func (e *Encoder) Close(ctx context.Context) error {
	e.logger.Debug("closing incremental encoder")
	e.workers.Stop()
	return nil
}
