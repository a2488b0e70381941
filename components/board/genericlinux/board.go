//go:build linux

// Package genericlinux drives pins through the Linux GPIO character device, by way of mkch's gpio
// package. PWM is generated in software.
package genericlinux

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/bricktronics/components/board"
	"go.viam.com/bricktronics/logging"
)

// DefaultPWMFreqHz is the software PWM frequency used when none is configured.
const DefaultPWMFreqHz = 800

// Config describes which GPIO chip to use.
type Config struct {
	// GPIOChipDev is the character device, e.g. /dev/gpiochip0.
	GPIOChipDev string `json:"gpio_chip"`
	// PWMFreqHz is the software PWM frequency.
	PWMFreqHz uint `json:"pwm_freq_hz,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.GPIOChipDev == "" {
		return errors.Errorf("%s: expected nonempty gpio_chip", path)
	}
	return nil
}

// Board is a Linux GPIO chip. Pins are named by their line offset on the chip, e.g. "17".
type Board struct {
	conf   Config
	logger logging.Logger

	mu         sync.Mutex
	pins       map[string]*gpioPin
	interrupts map[string]*digitalInterrupt

	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

var (
	_ board.Board      = (*Board)(nil)
	_ board.Interrupts = (*Board)(nil)
)

// NewBoard returns a board for the configured chip. Lines are only opened when first used.
func NewBoard(conf Config, logger logging.Logger) (*Board, error) {
	if err := conf.Validate("board"); err != nil {
		return nil, err
	}
	if conf.PWMFreqHz == 0 {
		conf.PWMFreqHz = DefaultPWMFreqHz
	}
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	return &Board{
		conf:       conf,
		logger:     logger,
		pins:       map[string]*gpioPin{},
		interrupts: map[string]*digitalInterrupt{},
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}, nil
}

func parseOffset(pin string) (uint32, error) {
	offset, err := strconv.ParseUint(pin, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(board.NewPinNotFoundError(pin), "pins are gpio line offsets")
	}
	return uint32(offset), nil
}

func (b *Board) pin(name string) (*gpioPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pins[name]; ok {
		return p, nil
	}
	if _, ok := b.interrupts[name]; ok {
		return nil, errors.Errorf("pin %s is in use as a digital interrupt", name)
	}
	offset, err := parseOffset(name)
	if err != nil {
		return nil, err
	}
	p := &gpioPin{
		devicePath: b.conf.GPIOChipDev,
		offset:     offset,
		mode:       board.PinModeInput,
		pwmFreqHz:  b.conf.PWMFreqHz,
		cancelCtx:  b.cancelCtx,
		waitGroup:  &b.activeBackgroundWorkers,
	}
	b.pins[name] = p
	return p, nil
}

// SetPinMode reopens the line as an input or an output.
func (b *Board) SetPinMode(ctx context.Context, pin string, mode board.PinMode) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.SetMode(mode)
}

// WriteDigital sets the line's level, stopping any software PWM on it.
func (b *Board) WriteDigital(ctx context.Context, pin string, high bool) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.Set(high)
}

// ReadDigital returns the line's level.
func (b *Board) ReadDigital(ctx context.Context, pin string) (bool, error) {
	b.mu.Lock()
	di, ok := b.interrupts[pin]
	b.mu.Unlock()
	if ok {
		return di.Value(ctx)
	}
	p, err := b.pin(pin)
	if err != nil {
		return false, err
	}
	return p.Get()
}

// WritePWM starts software PWM on the line with the given duty.
func (b *Board) WritePWM(ctx context.Context, pin string, duty uint8) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.SetPWM(duty)
}

// DigitalInterruptByName opens the named line for edge events.
func (b *Board) DigitalInterruptByName(name string) (board.DigitalInterrupt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if di, ok := b.interrupts[name]; ok {
		return di, nil
	}
	if _, ok := b.pins[name]; ok {
		return nil, errors.Errorf("pin %s is in use as a gpio pin", name)
	}
	offset, err := parseOffset(name)
	if err != nil {
		return nil, err
	}
	di, err := b.createDigitalInterrupt(name, offset)
	if err != nil {
		return nil, err
	}
	b.interrupts[name] = di
	return di, nil
}

// Close stops software PWM and interrupt monitors and releases every line.
func (b *Board) Close(ctx context.Context) error {
	b.cancelFunc()
	b.activeBackgroundWorkers.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	var errs error
	for _, p := range b.pins {
		errs = multierr.Combine(errs, p.Close())
	}
	for _, di := range b.interrupts {
		errs = multierr.Combine(errs, di.Close())
	}
	b.logger.Debugw("closed gpio board", "chip", b.conf.GPIOChipDev)
	return errs
}
