package nxt

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/bricktronics/control"
)

// Update runs one iteration of the control loop. In position mode it reads the encoder, picks
// gains for the current error, runs the PID and drives the motor with the truncated output. The
// PID only recomputes once per sample time, so calling Update more often is harmless.
func (m *Motor) Update(ctx context.Context) error {
	switch m.mode {
	case ModePosition:
		ticks, err := m.enc.Position(ctx)
		if err != nil {
			return errors.Wrap(err, "reading encoder")
		}
		m.input = float64(ticks)
		m.pid.SetTunings(m.schedule.For(m.gains, math.Abs(m.input-m.setpoint)))
		output, _ := m.pid.Compute(m.input, m.setpoint)
		return m.RawSetSpeed(ctx, int(output))
	default:
		// speed control is not implemented
		return nil
	}
}

// GoToPosition starts driving toward target on subsequent Updates.
func (m *Motor) GoToPosition(target int64) {
	m.setMode(ModePosition)
	m.setpoint = float64(target)
}

// SetMode changes what Update does. The drive pins are left as they are, so switching away from
// ModePosition does not stop the motor.
func (m *Motor) SetMode(mode Mode) {
	m.setMode(mode)
}

func (m *Motor) setMode(mode Mode) {
	if m.mode != mode {
		m.logger.Debugw("mode changed", "from", m.mode, "to", mode)
	}
	m.mode = mode
}

// Mode returns the current mode.
func (m *Motor) Mode() Mode {
	return m.mode
}

// Setpoint returns the target position in ticks.
func (m *Motor) Setpoint() float64 {
	return m.setpoint
}

// Input returns the encoder count read by the last Update.
func (m *Motor) Input() float64 {
	return m.input
}

// Output returns the PID output, in [-MaxSpeed, MaxSpeed].
func (m *Motor) Output() float64 {
	return m.pid.Output()
}

// LogValues logs the setpoint, input and output at debug.
func (m *Motor) LogValues() {
	m.logger.Debugw("pid values", "setpoint", m.setpoint, "input", m.input, "output", m.pid.Output())
}

// Gains returns the base gains. Near the target Update applies a scaled down copy.
func (m *Motor) Gains() control.Gains {
	return m.gains
}

// SetGains replaces the base gains and applies them right away.
func (m *Motor) SetGains(g control.Gains) {
	m.gains = g
	m.pid.SetTunings(m.gains)
}

// ActiveGains returns the gains the PID is currently using.
func (m *Motor) ActiveGains() control.Gains {
	return m.pid.Tunings()
}

// Kp returns the base proportional gain. Within NearTargetThreshold of the setpoint the PID runs
// on a scaled down copy, see ActiveGains.
func (m *Motor) Kp() float64 {
	return m.gains.P
}

// SetKp replaces the base proportional gain.
func (m *Motor) SetKp(kp float64) {
	g := m.gains
	g.P = kp
	m.SetGains(g)
}

// Ki returns the base integral gain, not the PID's current one.
func (m *Motor) Ki() float64 {
	return m.gains.I
}

// SetKi replaces the base integral gain.
func (m *Motor) SetKi(ki float64) {
	g := m.gains
	g.I = ki
	m.SetGains(g)
}

// Kd returns the base derivative gain, not the PID's current one.
func (m *Motor) Kd() float64 {
	return m.gains.D
}

// SetKd replaces the base derivative gain.
func (m *Motor) SetKd(kd float64) {
	g := m.gains
	g.D = kd
	m.SetGains(g)
}

// SampleTime returns how often the PID recomputes.
func (m *Motor) SampleTime() time.Duration {
	return m.pid.SampleTime()
}

// SetSampleTime changes how often the PID recomputes. Non-positive durations are ignored.
func (m *Motor) SetSampleTime(d time.Duration) {
	m.pid.SetSampleTime(d)
}

// Epsilon returns the arrival tolerance in ticks.
func (m *Motor) Epsilon() int {
	return m.epsilon
}

// SetEpsilon changes the arrival tolerance.
func (m *Motor) SetEpsilon(epsilon int) {
	m.epsilon = epsilon
}
