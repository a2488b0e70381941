// Package control implements the PID loop used by the position controlled motors.
package control

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Direction selects the sign of the controller's response to error.
type Direction int

const (
	// Direct drives the output up when the input is below the setpoint.
	Direct Direction = iota
	// Reverse drives the output down when the input is below the setpoint.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "direct"
}

// Mode is whether the PID computes (Automatic) or holds its output (Manual).
type Mode int

const (
	// Manual leaves the output untouched by Compute.
	Manual Mode = iota
	// Automatic runs the control law on every sample period.
	Automatic
)

// Default PID parameters.
const (
	DefaultSampleTime = 100 * time.Millisecond
	DefaultOutputMin  = 0.0
	DefaultOutputMax  = 255.0
)

// PID is a sampled PID controller. Compute only recalculates once per sample period; calling it
// more often returns the previous output. The derivative acts on the measurement rather than the
// error, so setpoint jumps do not kick the output.
type PID struct {
	mu    sync.Mutex
	clock clock.Clock

	// user facing gains
	tunings Gains
	// gains scaled by the sample time and the direction
	kp, ki, kd float64

	direction  Direction
	mode       Mode
	sampleTime time.Duration
	outMin     float64
	outMax     float64

	output    float64
	integral  float64
	lastInput float64
	lastTime  time.Time
}

// NewPID returns a PID in manual mode with the default sample time and output limits. The first
// Compute after switching to automatic runs without waiting a sample period.
func NewPID(gains Gains, direction Direction, clk clock.Clock) *PID {
	if clk == nil {
		clk = clock.New()
	}
	p := &PID{
		clock:      clk,
		mode:       Manual,
		sampleTime: DefaultSampleTime,
		outMin:     DefaultOutputMin,
		outMax:     DefaultOutputMax,
	}
	p.direction = direction
	p.setTunings(gains)
	p.lastTime = clk.Now().Add(-p.sampleTime)
	return p
}

// Compute runs one step of the control law if the controller is automatic and a sample period has
// elapsed since the last computation. It returns the current output and whether it was recomputed.
func (p *PID) Compute(input, setpoint float64) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode != Automatic {
		return p.output, false
	}
	now := p.clock.Now()
	if now.Sub(p.lastTime) < p.sampleTime {
		return p.output, false
	}

	err := setpoint - input
	dInput := input - p.lastInput

	p.integral = clamp(p.integral+p.ki*err, p.outMin, p.outMax)
	p.output = clamp(p.kp*err+p.integral-p.kd*dInput, p.outMin, p.outMax)

	p.lastInput = input
	p.lastTime = now
	return p.output, true
}

// Output returns the most recent output.
func (p *PID) Output() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// SetTunings replaces the gains. Gains with a negative term are ignored.
func (p *PID) SetTunings(g Gains) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setTunings(g)
}

func (p *PID) setTunings(g Gains) {
	if !g.valid() {
		return
	}
	p.tunings = g
	seconds := p.sampleTime.Seconds()
	p.kp = g.P
	p.ki = g.I * seconds
	p.kd = g.D / seconds
	if p.direction == Reverse {
		p.kp, p.ki, p.kd = -p.kp, -p.ki, -p.kd
	}
}

// Tunings returns the gains as they were last set.
func (p *PID) Tunings() Gains {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tunings
}

// SetSampleTime changes how often Compute recalculates. Non-positive durations are ignored.
func (p *PID) SetSampleTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d <= 0 {
		return
	}
	ratio := float64(d) / float64(p.sampleTime)
	p.ki *= ratio
	p.kd /= ratio
	p.sampleTime = d
}

// SampleTime returns the minimum time between computations.
func (p *PID) SampleTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampleTime
}

// SetOutputLimits bounds the output and the integral term. Calls with min >= max are ignored.
func (p *PID) SetOutputLimits(limitMin, limitMax float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if limitMin >= limitMax {
		return
	}
	p.outMin, p.outMax = limitMin, limitMax
	if p.mode == Automatic {
		p.output = clamp(p.output, p.outMin, p.outMax)
		p.integral = clamp(p.integral, p.outMin, p.outMax)
	}
}

// OutputLimits returns the output bounds.
func (p *PID) OutputLimits() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outMin, p.outMax
}

// SetMode switches between manual and automatic. Going from manual to automatic seeds the
// integral from the current output and the derivative from input, for a bumpless transfer.
func (p *PID) SetMode(mode Mode, input float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mode == Automatic && p.mode != Automatic {
		p.integral = clamp(p.output, p.outMin, p.outMax)
		p.lastInput = input
	}
	p.mode = mode
}

// Mode returns whether the controller is manual or automatic.
func (p *PID) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// SetDirection changes the controller direction, flipping the active gains if needed.
func (p *PID) SetDirection(d Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d != p.direction {
		p.kp, p.ki, p.kd = -p.kp, -p.ki, -p.kd
	}
	p.direction = d
}

// Direction returns the controller direction.
func (p *PID) Direction() Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.direction
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
