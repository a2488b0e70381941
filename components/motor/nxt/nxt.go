// Package nxt implements closed loop position control of a LEGO NXT motor driven through an
// enable/direction/pwm H-bridge and read through a quadrature encoder.
//
// A Motor has no internal locking. Update, the blocking waits, and every setter must be called
// from one goroutine at a time; Runner provides that for a periodic update loop.
package nxt

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/bricktronics/components/board"
	"go.viam.com/bricktronics/components/encoder"
	"go.viam.com/bricktronics/control"
	"go.viam.com/bricktronics/logging"
	"go.viam.com/bricktronics/operation"
	"go.viam.com/bricktronics/utils"
)

// Mode is what Update does with the motor.
type Mode int

const (
	// ModeDisabled leaves the drive alone.
	ModeDisabled Mode = iota
	// ModePosition drives toward the setpoint.
	ModePosition
	// ModeSpeed is reserved for speed control and currently does nothing.
	ModeSpeed
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModePosition:
		return "position"
	case ModeSpeed:
		return "speed"
	default:
		return "unknown"
	}
}

// Motor is an NXT motor under PID position control.
type Motor struct {
	pins   PinConfig
	board  board.Board
	enc    encoder.Encoder
	logger logging.Logger
	poller *operation.Poller

	pid      *control.PID
	schedule control.GainSchedule
	gains    control.Gains

	mode     Mode
	setpoint float64
	input    float64

	angleMultiplier int
	epsilon         int
	rawSpeed        int
	enabled         bool
}

// NewMotor returns a disabled motor. Nothing is written to the board until Begin.
func NewMotor(b board.Board, enc encoder.Encoder, conf Config, clk clock.Clock, logger logging.Logger) (*Motor, error) {
	if b == nil {
		return nil, errors.New("nxt motor needs a board")
	}
	if enc == nil {
		return nil, errors.New("nxt motor needs an encoder")
	}
	if err := conf.Validate("motor"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	pid := control.NewPID(conf.Gains, conf.Direction, clk)
	pid.SetSampleTime(conf.SampleTime)
	pid.SetOutputLimits(-MaxSpeed, MaxSpeed)

	return &Motor{
		pins:            conf.Pins,
		board:           b,
		enc:             enc,
		logger:          logger,
		poller:          operation.NewPoller(clk),
		pid:             pid,
		schedule:        control.GainSchedule{Threshold: NearTargetThreshold, Divisor: ConservativeDivisor},
		gains:           conf.Gains,
		mode:            ModeDisabled,
		angleMultiplier: conf.GearRatio << 1,
		epsilon:         conf.Epsilon,
	}, nil
}

// Begin switches the PID to automatic, stops the motor, and makes the drive pins outputs. The
// mode is left as it was, so nothing moves until a position is commanded.
func (m *Motor) Begin(ctx context.Context) error {
	m.pid.SetMode(control.Automatic, m.input)
	m.enabled = true
	if err := m.Stop(ctx); err != nil {
		return err
	}
	for _, pin := range []string{m.pins.Direction, m.pins.PWM, m.pins.Enable} {
		if err := m.board.SetPinMode(ctx, pin, board.PinModeOutput); err != nil {
			return errors.Wrapf(err, "setting pin %s as output", pin)
		}
	}
	m.logger.Debugw("motor enabled", "pins", m.pins)
	return nil
}

// Enable is Begin.
func (m *Motor) Enable(ctx context.Context) error {
	return m.Begin(ctx)
}

// Disable floats the drive pins by making them inputs. Tuning and mode are kept.
func (m *Motor) Disable(ctx context.Context) error {
	m.enabled = false
	var errs error
	for _, pin := range []string{m.pins.Direction, m.pins.PWM, m.pins.Enable} {
		if err := m.board.SetPinMode(ctx, pin, board.PinModeInput); err != nil {
			errs = multierr.Combine(errs, errors.Wrapf(err, "setting pin %s as input", pin))
		}
	}
	m.logger.Debug("motor disabled")
	return errs
}

// Close disables the motor.
func (m *Motor) Close(ctx context.Context) error {
	return m.Disable(ctx)
}

// Enabled reports whether Begin has been called since the last Disable.
func (m *Motor) Enabled() bool {
	return m.enabled
}

// Stop drives all three pins low, which lets the motor coast. Every pin is written even if an
// earlier write fails.
func (m *Motor) Stop(ctx context.Context) error {
	var errs error
	for _, pin := range []string{m.pins.Enable, m.pins.Direction, m.pins.PWM} {
		if err := m.board.WriteDigital(ctx, pin, false); err != nil {
			errs = multierr.Combine(errs, errors.Wrapf(err, "writing pin %s low", pin))
		}
	}
	return errs
}

// RawSetSpeed drives the motor open loop. Negative speeds run the bridge reversed, with the duty
// inverted because the direction line is then high. Speeds are clamped to MaxSpeed.
func (m *Motor) RawSetSpeed(ctx context.Context, speed int) error {
	speed = utils.ClampInt(speed, -MaxSpeed, MaxSpeed)
	m.rawSpeed = speed

	var dirHigh bool
	var duty uint8
	switch {
	case speed == 0:
		return m.Stop(ctx)
	case speed < 0:
		dirHigh = true
		duty = uint8(MaxSpeed + speed)
	default:
		duty = uint8(speed)
	}

	if err := m.board.WriteDigital(ctx, m.pins.Direction, dirHigh); err != nil {
		return errors.Wrap(err, "writing direction pin")
	}
	if err := m.board.WritePWM(ctx, m.pins.PWM, duty); err != nil {
		return errors.Wrap(err, "writing pwm pin")
	}
	if err := m.board.WriteDigital(ctx, m.pins.Enable, true); err != nil {
		return errors.Wrap(err, "writing enable pin")
	}
	return nil
}

// RawSpeed returns the last drive command.
func (m *Motor) RawSpeed() int {
	return m.rawSpeed
}

// Position returns the encoder count.
func (m *Motor) Position(ctx context.Context) (int64, error) {
	return m.enc.Position(ctx)
}

// SetPosition overwrites the encoder count.
func (m *Motor) SetPosition(ctx context.Context, ticks int64) error {
	return m.enc.SetPosition(ctx, ticks)
}
