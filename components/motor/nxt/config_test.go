package nxt

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/bricktronics/control"
)

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	test.That(t, conf.Gains, test.ShouldResemble, control.Gains{P: 2.64, I: 14.432, D: 0.1207317073})
	test.That(t, conf.Direction, test.ShouldEqual, control.Reverse)
	test.That(t, conf.SampleTime, test.ShouldEqual, 50*time.Millisecond)
	test.That(t, conf.GearRatio, test.ShouldEqual, 1)
	test.That(t, conf.Epsilon, test.ShouldEqual, 5)
	test.That(t, conf.Pins, test.ShouldResemble, PinConfig{})
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		conf := DefaultConfig()
		conf.Pins = testPins
		return conf
	}
	conf := valid()
	test.That(t, conf.Validate("motor"), test.ShouldBeNil)

	for _, tc := range []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"no enable pin", func(c *Config) { c.Pins.Enable = "" }, "pins.en"},
		{"no direction pin", func(c *Config) { c.Pins.Direction = "" }, "pins.dir"},
		{"no pwm pin", func(c *Config) { c.Pins.PWM = "" }, "pins.pwm"},
		{"zero gear ratio", func(c *Config) { c.GearRatio = 0 }, "gear_ratio"},
		{"negative epsilon", func(c *Config) { c.Epsilon = -1 }, "epsilon"},
		{"zero sample time", func(c *Config) { c.SampleTime = 0 }, "sample_time"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conf := valid()
			tc.mutate(&conf)
			err := conf.Validate("motor")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.contains)
			test.That(t, err.Error(), test.ShouldStartWith, "motor: ")
		})
	}

	t.Run("zero epsilon is allowed", func(t *testing.T) {
		conf := valid()
		conf.Epsilon = 0
		test.That(t, conf.Validate("motor"), test.ShouldBeNil)
	})
}
