// Package fake implements an in-memory board that remembers everything written to it.
package fake

import (
	"context"
	"sync"

	"go.viam.com/bricktronics/components/board"
)

// Op names a kind of write recorded by the fake board.
type Op string

// Recorded operations.
const (
	OpSetPinMode   Op = "mode"
	OpWriteDigital Op = "digital"
	OpWritePWM     Op = "pwm"
)

// Write is one recorded call. Value is the mode, 0/1 level or duty depending on Op.
type Write struct {
	Op    Op
	Pin   string
	Value int
}

// Board is a fake board. Pins spring into existence on first use, as inputs reading low.
type Board struct {
	mu       sync.Mutex
	modes    map[string]board.PinMode
	levels   map[string]bool
	duty     map[string]uint8
	history  []Write
	digitals map[string]*board.BasicDigitalInterrupt

	// FailWith, when set, is returned by every call instead of touching the pin.
	FailWith error
}

var (
	_ board.Board      = (*Board)(nil)
	_ board.Interrupts = (*Board)(nil)
)

// NewBoard returns an empty fake board.
func NewBoard() *Board {
	return &Board{
		modes:    map[string]board.PinMode{},
		levels:   map[string]bool{},
		duty:     map[string]uint8{},
		digitals: map[string]*board.BasicDigitalInterrupt{},
	}
}

// SetPinMode records the pin's mode.
func (b *Board) SetPinMode(ctx context.Context, pin string, mode board.PinMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return b.FailWith
	}
	b.modes[pin] = mode
	b.history = append(b.history, Write{Op: OpSetPinMode, Pin: pin, Value: int(mode)})
	return nil
}

// WriteDigital sets the level and, like a microcontroller, cancels any PWM running on the pin.
func (b *Board) WriteDigital(ctx context.Context, pin string, high bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return b.FailWith
	}
	b.levels[pin] = high
	value := 0
	b.duty[pin] = 0
	if high {
		value = 1
		b.duty[pin] = 255
	}
	b.history = append(b.history, Write{Op: OpWriteDigital, Pin: pin, Value: value})
	return nil
}

// ReadDigital returns the last written level.
func (b *Board) ReadDigital(ctx context.Context, pin string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return false, b.FailWith
	}
	return b.levels[pin], nil
}

// WritePWM records the duty cycle. The pin reads high unless the duty is zero.
func (b *Board) WritePWM(ctx context.Context, pin string, duty uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return b.FailWith
	}
	b.duty[pin] = duty
	b.levels[pin] = duty != 0
	b.history = append(b.history, Write{Op: OpWritePWM, Pin: pin, Value: int(duty)})
	return nil
}

// Mode returns the pin's mode.
func (b *Board) Mode(pin string) board.PinMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes[pin]
}

// Level returns the pin's level.
func (b *Board) Level(pin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[pin]
}

// Duty returns the pin's duty cycle, 255 for a pin written high.
func (b *Board) Duty(pin string) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duty[pin]
}

// History returns a copy of every recorded write, oldest first.
func (b *Board) History() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Write, len(b.history))
	copy(out, b.history)
	return out
}

// ResetHistory forgets the recorded writes but keeps pin state.
func (b *Board) ResetHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

// DigitalInterruptByName returns the named interrupt, creating it on first use.
func (b *Board) DigitalInterruptByName(name string) (board.DigitalInterrupt, error) {
	return b.Interrupt(name), nil
}

// Interrupt is DigitalInterruptByName with the concrete type, so tests can Tick it.
func (b *Board) Interrupt(name string) *board.BasicDigitalInterrupt {
	b.mu.Lock()
	defer b.mu.Unlock()
	di, ok := b.digitals[name]
	if !ok {
		di = board.NewBasicDigitalInterrupt(name)
		b.digitals[name] = di
	}
	return di
}
