// Package sim simulates an NXT motor on a fake board, so the position controller can be run
// without hardware.
//
// The plant reads the H-bridge lines the controller writes and turns them into motion on a fake
// encoder. It is also an encoder itself: every read advances simulated time by one step, which
// lets the controller's blocking waits run against a mock clock.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	fakeboard "go.viam.com/bricktronics/components/board/fake"
	"go.viam.com/bricktronics/components/encoder"
	fakeencoder "go.viam.com/bricktronics/components/encoder/fake"
	"go.viam.com/bricktronics/components/motor/nxt"
)

// Defaults roughly matching an unloaded NXT motor.
const (
	DefaultMaxTicksPerSecond = 2000.0
	DefaultTimeConstant      = 80 * time.Millisecond
	DefaultStepSize          = 5 * time.Millisecond
)

// Config describes the simulated motor.
type Config struct {
	// MaxTicksPerSecond is the steady state speed at full effort.
	MaxTicksPerSecond float64
	// TimeConstant is how quickly the speed follows the effort.
	TimeConstant time.Duration
	// StepSize is how far simulated time moves on each Position call.
	StepSize time.Duration
	// Deadband is the effort magnitude below which the motor doesn't turn.
	Deadband float64
}

// Plant is a first order model of a motor.
type Plant struct {
	board *fakeboard.Board
	enc   *fakeencoder.Encoder
	pins  nxt.PinConfig
	clk   *clock.Mock
	conf  Config

	mu       sync.Mutex
	velocity float64
	partial  float64
}

var _ encoder.Encoder = (*Plant)(nil)

// NewPlant returns a plant at rest. Zero fields in conf take the defaults.
func NewPlant(b *fakeboard.Board, enc *fakeencoder.Encoder, pins nxt.PinConfig, clk *clock.Mock, conf Config) *Plant {
	if conf.MaxTicksPerSecond == 0 {
		conf.MaxTicksPerSecond = DefaultMaxTicksPerSecond
	}
	if conf.TimeConstant <= 0 {
		conf.TimeConstant = DefaultTimeConstant
	}
	if conf.StepSize <= 0 {
		conf.StepSize = DefaultStepSize
	}
	return &Plant{board: b, enc: enc, pins: pins, clk: clk, conf: conf}
}

// Effort returns the drive the bridge is applying, in [-255, 255]. Positive effort counts ticks up.
func (p *Plant) Effort() float64 {
	if !p.board.Level(p.pins.Enable) {
		return 0
	}
	duty := float64(p.board.Duty(p.pins.PWM))
	if p.board.Level(p.pins.Direction) {
		return nxt.MaxSpeed - duty
	}
	return -duty
}

// Velocity returns the current speed in ticks per second.
func (p *Plant) Velocity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.velocity
}

// Step advances the motor and the clock by dt.
func (p *Plant) Step(dt time.Duration) {
	effort := p.Effort()
	target := effort / nxt.MaxSpeed * p.conf.MaxTicksPerSecond
	if math.Abs(effort) < p.conf.Deadband {
		target = 0
	}

	p.mu.Lock()
	alpha := 1 - math.Exp(-dt.Seconds()/p.conf.TimeConstant.Seconds())
	p.velocity += (target - p.velocity) * alpha
	move := p.velocity*dt.Seconds() + p.partial
	whole := math.Trunc(move)
	p.partial = move - whole
	p.mu.Unlock()

	p.enc.Add(int64(whole))
	p.clk.Add(dt)
}

// Run steps the plant until d has passed.
func (p *Plant) Run(d time.Duration) {
	for ; d > 0; d -= p.conf.StepSize {
		p.Step(min(d, p.conf.StepSize))
	}
}

// Position steps the plant once and returns the encoder count.
func (p *Plant) Position(ctx context.Context) (int64, error) {
	p.Step(p.conf.StepSize)
	return p.enc.Position(ctx)
}

// SetPosition overwrites the encoder count. The motor keeps its speed.
func (p *Plant) SetPosition(ctx context.Context, ticks int64) error {
	return p.enc.SetPosition(ctx, ticks)
}
