// Package board defines the pin level capabilities a motor driver needs from its hardware.
package board

import (
	"context"

	"github.com/pkg/errors"
)

// PinMode is the electrical configuration of a digital pin.
type PinMode int

const (
	// PinModeInput leaves the pin floating, so it does not drive anything.
	PinModeInput PinMode = iota
	// PinModeOutput drives the pin to the last written level.
	PinModeOutput
)

func (m PinMode) String() string {
	switch m {
	case PinModeInput:
		return "input"
	case PinModeOutput:
		return "output"
	}
	return "unknown"
}

// GPIO is digital pin access.
type GPIO interface {
	// SetPinMode configures the pin as an input or an output.
	SetPinMode(ctx context.Context, pin string, mode PinMode) error

	// WriteDigital sets an output pin high or low.
	WriteDigital(ctx context.Context, pin string, high bool) error

	// ReadDigital returns the pin's level.
	ReadDigital(ctx context.Context, pin string) (bool, error)
}

// PWM is duty cycle output.
type PWM interface {
	// WritePWM sets the duty cycle of the pin, 0 is always low and 255 always high.
	WritePWM(ctx context.Context, pin string, duty uint8) error
}

// Board is a GPIO bank that can also drive PWM.
type Board interface {
	GPIO
	PWM
}

// Funcs adapts plain functions into a Board, for backends that only have loose functions to
// offer. Nil functions return an error.
type Funcs struct {
	SetPinModeFunc   func(ctx context.Context, pin string, mode PinMode) error
	WriteDigitalFunc func(ctx context.Context, pin string, high bool) error
	ReadDigitalFunc  func(ctx context.Context, pin string) (bool, error)
	WritePWMFunc     func(ctx context.Context, pin string, duty uint8) error
}

// SetPinMode calls SetPinModeFunc.
func (f *Funcs) SetPinMode(ctx context.Context, pin string, mode PinMode) error {
	if f.SetPinModeFunc == nil {
		return errors.New("SetPinMode not supported")
	}
	return f.SetPinModeFunc(ctx, pin, mode)
}

// WriteDigital calls WriteDigitalFunc.
func (f *Funcs) WriteDigital(ctx context.Context, pin string, high bool) error {
	if f.WriteDigitalFunc == nil {
		return errors.New("WriteDigital not supported")
	}
	return f.WriteDigitalFunc(ctx, pin, high)
}

// ReadDigital calls ReadDigitalFunc.
func (f *Funcs) ReadDigital(ctx context.Context, pin string) (bool, error) {
	if f.ReadDigitalFunc == nil {
		return false, errors.New("ReadDigital not supported")
	}
	return f.ReadDigitalFunc(ctx, pin)
}

// WritePWM calls WritePWMFunc.
func (f *Funcs) WritePWM(ctx context.Context, pin string, duty uint8) error {
	if f.WritePWMFunc == nil {
		return errors.New("WritePWM not supported")
	}
	return f.WritePWMFunc(ctx, pin, duty)
}

// NewPinNotFoundError is returned when a board has no pin by the given name.
func NewPinNotFoundError(pin string) error {
	return errors.Errorf("unknown pin %q", pin)
}
