// Package expander implements the Bricktronics shield's MCP23017 port expander. Pins named "x0"
// through "x15" live on the expander; any other pin is passed through to the host board.
package expander

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"go.viam.com/bricktronics/components/board"
	"go.viam.com/bricktronics/logging"
)

// DefaultAddress is the MCP23017's address with A0..A2 grounded.
const DefaultAddress uint16 = 0x20

// PinPrefix marks a pin as belonging to the expander.
const PinPrefix = "x"

// Register addresses with IOCON.BANK = 0.
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regGPIOA  = 0x12
	regGPIOB  = 0x13
	regOLATA  = 0x14
	regOLATB  = 0x15
)

const numPins = 16

// Shield is a host board with an MCP23017 on its I²C bus.
type Shield struct {
	host   board.Board
	dev    *i2c.Dev
	logger logging.Logger

	mu sync.Mutex
	// shadow registers, index 0 is port A
	iodir [2]byte
	olat  [2]byte
}

var _ board.Board = (*Shield)(nil)

// NewShield configures every expander pin as an input with its output latch low, matching the
// chip's power-on state.
func NewShield(ctx context.Context, host board.Board, bus i2c.Bus, addr uint16, logger logging.Logger) (*Shield, error) {
	if host == nil {
		return nil, errors.New("expander needs a host board")
	}
	if addr == 0 {
		addr = DefaultAddress
	}
	s := &Shield{
		host:   host,
		dev:    &i2c.Dev{Bus: bus, Addr: addr},
		logger: logger,
		iodir:  [2]byte{0xff, 0xff},
	}
	for port := 0; port < 2; port++ {
		if err := s.writeReg(regOLATA+byte(port), s.olat[port]); err != nil {
			return nil, errors.Wrapf(err, "initializing mcp23017 at %#x", addr)
		}
		if err := s.writeReg(regIODIRA+byte(port), s.iodir[port]); err != nil {
			return nil, errors.Wrapf(err, "initializing mcp23017 at %#x", addr)
		}
	}
	logger.Debugw("mcp23017 ready", "address", addr)
	return s, nil
}

// expanderPin returns the port and bit for an expander pin; ok is false for host pins.
func expanderPin(pin string) (port, bit int, ok bool, err error) {
	if !strings.HasPrefix(pin, PinPrefix) {
		return 0, 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(pin, PinPrefix))
	if err != nil || n < 0 || n >= numPins {
		return 0, 0, true, board.NewPinNotFoundError(pin)
	}
	return n / 8, n % 8, true, nil
}

func (s *Shield) writeReg(reg, value byte) error {
	return s.dev.Tx([]byte{reg, value}, nil)
}

func (s *Shield) readReg(reg byte) (byte, error) {
	read := make([]byte, 1)
	if err := s.dev.Tx([]byte{reg}, read); err != nil {
		return 0, err
	}
	return read[0], nil
}

// SetPinMode updates the IODIR register for expander pins.
func (s *Shield) SetPinMode(ctx context.Context, pin string, mode board.PinMode) error {
	port, bit, onExpander, err := expanderPin(pin)
	if err != nil {
		return err
	}
	if !onExpander {
		return s.host.SetPinMode(ctx, pin, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.iodir[port]
	if mode == board.PinModeOutput {
		next &^= 1 << bit
	} else {
		next |= 1 << bit
	}
	if next == s.iodir[port] {
		return nil
	}
	if err := s.writeReg(regIODIRA+byte(port), next); err != nil {
		return err
	}
	s.iodir[port] = next
	return nil
}

// WriteDigital updates the OLAT register for expander pins.
func (s *Shield) WriteDigital(ctx context.Context, pin string, high bool) error {
	port, bit, onExpander, err := expanderPin(pin)
	if err != nil {
		return err
	}
	if !onExpander {
		return s.host.WriteDigital(ctx, pin, high)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.olat[port]
	if high {
		next |= 1 << bit
	} else {
		next &^= 1 << bit
	}
	if err := s.writeReg(regOLATA+byte(port), next); err != nil {
		return err
	}
	s.olat[port] = next
	return nil
}

// ReadDigital reads the GPIO register for expander pins.
func (s *Shield) ReadDigital(ctx context.Context, pin string) (bool, error) {
	port, bit, onExpander, err := expanderPin(pin)
	if err != nil {
		return false, err
	}
	if !onExpander {
		return s.host.ReadDigital(ctx, pin)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	value, err := s.readReg(regGPIOA + byte(port))
	if err != nil {
		return false, err
	}
	return value&(1<<bit) != 0, nil
}

// WritePWM passes through to the host. The expander has no PWM, so only full off and full on are
// accepted for its pins.
func (s *Shield) WritePWM(ctx context.Context, pin string, duty uint8) error {
	_, _, onExpander, err := expanderPin(pin)
	if err != nil {
		return err
	}
	if !onExpander {
		return s.host.WritePWM(ctx, pin, duty)
	}
	switch duty {
	case 0:
		return s.WriteDigital(ctx, pin, false)
	case 255:
		return s.WriteDigital(ctx, pin, true)
	default:
		return errors.Errorf("pin %s is on the port expander and cannot do pwm", pin)
	}
}
