//go:build linux

package genericlinux

import (
	"context"
	"sync"
	"time"

	"github.com/mkch/gpio"
	"go.viam.com/utils"

	"go.viam.com/bricktronics/components/board"
)

const consumer = "bricktronics"

type gpioPin struct {
	// These values should be considered immutable.
	devicePath string
	offset     uint32
	cancelCtx  context.Context
	waitGroup  *sync.WaitGroup

	// Lock the mutex when touching anything below.
	mu         sync.Mutex
	line       *gpio.Line
	mode       board.PinMode
	level      byte
	pwmRunning bool
	pwmFreqHz  uint
	pwmDuty    uint8
}

// Must be called with the mutex held. Opens the line for the pin's mode if it isn't already.
func (pin *gpioPin) openLine() error {
	if pin.line != nil {
		return nil
	}

	chip, err := gpio.OpenChip(pin.devicePath)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(chip.Close)

	flags := gpio.Input
	if pin.mode == board.PinModeOutput {
		flags = gpio.Output
	}
	line, err := chip.OpenLine(pin.offset, pin.level, flags, consumer)
	if err != nil {
		return err
	}
	pin.line = line
	return nil
}

// SetMode closes the line and reopens it in the new direction.
func (pin *gpioPin) SetMode(mode board.PinMode) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	pin.pwmRunning = false
	if pin.line != nil && pin.mode == mode {
		return nil
	}
	if pin.line != nil {
		if err := pin.line.Close(); err != nil {
			return err
		}
		pin.line = nil
	}
	pin.mode = mode
	return pin.openLine()
}

func (pin *gpioPin) Set(high bool) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return err
	}
	pin.pwmRunning = false
	return pin.setInternal(high)
}

// Must be called with the mutex held. Sets the level without touching the PWM state.
func (pin *gpioPin) setInternal(high bool) error {
	var value byte
	if high {
		value = 1
	}
	pin.level = value
	if pin.mode != board.PinModeOutput {
		// an input line cannot be driven; openLine starts the output at this level
		return nil
	}
	return pin.line.SetValue(value)
}

func (pin *gpioPin) Get() (bool, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return false, err
	}
	value, err := pin.line.Value()
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

func (pin *gpioPin) SetPWM(duty uint8) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return err
	}
	pin.pwmDuty = duty
	return pin.startSoftwarePWM()
}

// Must be called with the mutex held. Starts the PWM goroutine if one isn't running; full off and
// full on are written as plain levels.
func (pin *gpioPin) startSoftwarePWM() error {
	switch pin.pwmDuty {
	case 0:
		pin.pwmRunning = false
		return pin.setInternal(false)
	case 255:
		pin.pwmRunning = false
		return pin.setInternal(true)
	}
	if pin.pwmRunning {
		return nil
	}
	pin.pwmRunning = true
	pin.waitGroup.Add(1)
	utils.ManagedGo(pin.softwarePWMLoop, pin.waitGroup.Done)
	return nil
}

// Drives one half of a PWM period and waits it out. Returns whether the loop should continue.
func (pin *gpioPin) halfPWMCycle(shouldBeOn bool) bool {
	var duty float64
	var freqHz uint

	shouldContinue := func() bool {
		pin.mu.Lock()
		defer pin.mu.Unlock()
		if !pin.pwmRunning {
			return false
		}
		duty = float64(pin.pwmDuty) / 255
		freqHz = pin.pwmFreqHz
		// keep cycling on a failed write, the next toggle may succeed
		utils.UncheckedErrorFunc(func() error { return pin.setInternal(shouldBeOn) })
		return true
	}()
	if !shouldContinue {
		return false
	}

	if !shouldBeOn {
		duty = 1 - duty
	}
	return utils.SelectContextOrWait(pin.cancelCtx, time.Duration(float64(time.Second)*duty/float64(freqHz)))
}

func (pin *gpioPin) softwarePWMLoop() {
	for {
		if !pin.halfPWMCycle(true) {
			return
		}
		if !pin.halfPWMCycle(false) {
			return
		}
	}
}

func (pin *gpioPin) Close() error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	pin.pwmRunning = false
	if pin.line == nil {
		return nil
	}
	err := pin.line.Close()
	pin.line = nil
	return err
}
