package nxt

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/bricktronics/control"
)

// Defaults for a LEGO NXT motor on a Bricktronics shield.
const (
	DefaultKp         = 2.64
	DefaultKi         = 14.432
	DefaultKd         = 0.1207317073
	DefaultSampleTime = 50 * time.Millisecond
	DefaultGearRatio  = 1
	DefaultEpsilon    = 5
	DefaultDirection  = control.Reverse
)

const (
	// MaxSpeed is the largest drive command in either direction.
	MaxSpeed = 255
	// SettledOutputThreshold is the PID output magnitude below which the motor counts as settled.
	SettledOutputThreshold = 30
	// NearTargetThreshold is the error, in ticks, inside which the conservative gains apply.
	NearTargetThreshold = 5
	// ConservativeDivisor scales the base gains down near the target.
	ConservativeDivisor = 8
)

// PinConfig names the three drive lines of the H-bridge.
type PinConfig struct {
	Enable    string `json:"en"`
	Direction string `json:"dir"`
	PWM       string `json:"pwm"`
}

// Config describes an NXT motor.
type Config struct {
	Pins       PinConfig         `json:"pins"`
	Gains      control.Gains     `json:"gains"`
	Direction  control.Direction `json:"direction"`
	SampleTime time.Duration     `json:"sample_time"`
	// GearRatio is the number of motor degrees per output degree.
	GearRatio int `json:"gear_ratio"`
	// Epsilon is the arrival tolerance in ticks.
	Epsilon int `json:"epsilon"`
}

// DefaultConfig returns the stock tuning with no pins set.
func DefaultConfig() Config {
	return Config{
		Gains:      control.Gains{P: DefaultKp, I: DefaultKi, D: DefaultKd},
		Direction:  DefaultDirection,
		SampleTime: DefaultSampleTime,
		GearRatio:  DefaultGearRatio,
		Epsilon:    DefaultEpsilon,
	}
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Pins.Enable == "" {
		return errors.Errorf("%s: expected nonempty string for pins.en", path)
	}
	if conf.Pins.Direction == "" {
		return errors.Errorf("%s: expected nonempty string for pins.dir", path)
	}
	if conf.Pins.PWM == "" {
		return errors.Errorf("%s: expected nonempty string for pins.pwm", path)
	}
	if conf.GearRatio == 0 {
		return errors.Errorf("%s: gear_ratio cannot be 0", path)
	}
	if conf.Epsilon < 0 {
		return errors.Errorf("%s: epsilon cannot be negative, got %d", path, conf.Epsilon)
	}
	if conf.SampleTime <= 0 {
		return errors.Errorf("%s: sample_time must be positive, got %v", path, conf.SampleTime)
	}
	return nil
}
