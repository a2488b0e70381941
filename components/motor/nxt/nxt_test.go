package nxt

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/bricktronics/components/board"
	fakeboard "go.viam.com/bricktronics/components/board/fake"
	fakeencoder "go.viam.com/bricktronics/components/encoder/fake"
	"go.viam.com/bricktronics/logging"
)

var testPins = PinConfig{Enable: "en", Direction: "dir", PWM: "pwm"}

type testHarness struct {
	motor *Motor
	board *fakeboard.Board
	enc   *clockedEncoder
	clk   *clock.Mock
}

// clockedEncoder moves the mock clock forward on every read so that blocking waits make progress.
type clockedEncoder struct {
	fakeencoder.Encoder
	clk  *clock.Mock
	step time.Duration
}

func (e *clockedEncoder) Position(ctx context.Context) (int64, error) {
	if e.step > 0 {
		e.clk.Add(e.step)
	}
	return e.Encoder.Position(ctx)
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	clk := clock.NewMock()
	b := fakeboard.NewBoard()
	enc := &clockedEncoder{clk: clk}
	conf := DefaultConfig()
	conf.Pins = testPins
	m, err := NewMotor(b, enc, conf, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return &testHarness{motor: m, board: b, enc: enc, clk: clk}
}

func (h *testHarness) setTicks(t *testing.T, ticks int64) {
	t.Helper()
	test.That(t, h.enc.Encoder.SetPosition(context.Background(), ticks), test.ShouldBeNil)
}

func (h *testHarness) inert(t *testing.T) {
	t.Helper()
	for _, pin := range []string{"en", "dir", "pwm"} {
		test.That(t, h.board.Level(pin), test.ShouldBeFalse)
		test.That(t, h.board.Duty(pin), test.ShouldEqual, uint8(0))
	}
}

func TestNewMotor(t *testing.T) {
	h := newHarness(t)
	m := h.motor

	test.That(t, m.Mode(), test.ShouldEqual, ModeDisabled)
	test.That(t, m.Enabled(), test.ShouldBeFalse)
	test.That(t, m.Setpoint(), test.ShouldEqual, 0.0)
	test.That(t, m.Output(), test.ShouldEqual, 0.0)
	test.That(t, m.RawSpeed(), test.ShouldEqual, 0)
	test.That(t, m.AngleMultiplier(), test.ShouldEqual, 2)
	test.That(t, m.Epsilon(), test.ShouldEqual, DefaultEpsilon)
	test.That(t, m.SampleTime(), test.ShouldEqual, DefaultSampleTime)
	test.That(t, m.Gains(), test.ShouldResemble, DefaultConfig().Gains)
	test.That(t, h.board.History(), test.ShouldBeEmpty)

	t.Run("missing parts", func(t *testing.T) {
		conf := DefaultConfig()
		conf.Pins = testPins
		logger := logging.NewTestLogger(t)

		_, err := NewMotor(nil, &fakeencoder.Encoder{}, conf, nil, logger)
		test.That(t, err, test.ShouldBeError, errors.New("nxt motor needs a board"))
		_, err = NewMotor(fakeboard.NewBoard(), nil, conf, nil, logger)
		test.That(t, err, test.ShouldBeError, errors.New("nxt motor needs an encoder"))

		_, err = NewMotor(fakeboard.NewBoard(), &fakeencoder.Encoder{}, DefaultConfig(), nil, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "pins.en")
	})

	t.Run("gear ratio", func(t *testing.T) {
		conf := DefaultConfig()
		conf.Pins = testPins
		conf.GearRatio = 3
		m, err := NewMotor(fakeboard.NewBoard(), &fakeencoder.Encoder{}, conf, clock.NewMock(), logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.AngleMultiplier(), test.ShouldEqual, 6)
	})
}

func TestBeginDisable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.motor

	test.That(t, m.Begin(ctx), test.ShouldBeNil)
	test.That(t, m.Enabled(), test.ShouldBeTrue)
	test.That(t, m.Mode(), test.ShouldEqual, ModeDisabled)
	h.inert(t)
	for _, pin := range []string{"en", "dir", "pwm"} {
		test.That(t, h.board.Mode(pin), test.ShouldEqual, board.PinModeOutput)
	}
	test.That(t, h.board.History(), test.ShouldResemble, []fakeboard.Write{
		{Op: fakeboard.OpWriteDigital, Pin: "en", Value: 0},
		{Op: fakeboard.OpWriteDigital, Pin: "dir", Value: 0},
		{Op: fakeboard.OpWriteDigital, Pin: "pwm", Value: 0},
		{Op: fakeboard.OpSetPinMode, Pin: "dir", Value: int(board.PinModeOutput)},
		{Op: fakeboard.OpSetPinMode, Pin: "pwm", Value: int(board.PinModeOutput)},
		{Op: fakeboard.OpSetPinMode, Pin: "en", Value: int(board.PinModeOutput)},
	})

	m.SetKp(1.5)
	test.That(t, m.Disable(ctx), test.ShouldBeNil)
	test.That(t, m.Enabled(), test.ShouldBeFalse)
	test.That(t, m.Kp(), test.ShouldEqual, 1.5)
	for _, pin := range []string{"en", "dir", "pwm"} {
		test.That(t, h.board.Mode(pin), test.ShouldEqual, board.PinModeInput)
	}

	test.That(t, m.Enable(ctx), test.ShouldBeNil)
	test.That(t, m.Enabled(), test.ShouldBeTrue)
	test.That(t, m.Close(ctx), test.ShouldBeNil)
	test.That(t, m.Enabled(), test.ShouldBeFalse)

	t.Run("board errors", func(t *testing.T) {
		h := newHarness(t)
		h.board.FailWith = errors.New("no gpio")
		err := h.motor.Begin(ctx)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "no gpio")

		err = h.motor.Disable(ctx)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "setting pin dir as input")
	})
}

func TestRawSetSpeed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.motor
	test.That(t, m.Begin(ctx), test.ShouldBeNil)

	t.Run("reverse", func(t *testing.T) {
		h.board.ResetHistory()
		test.That(t, m.RawSetSpeed(ctx, -100), test.ShouldBeNil)
		test.That(t, m.RawSpeed(), test.ShouldEqual, -100)
		test.That(t, h.board.History(), test.ShouldResemble, []fakeboard.Write{
			{Op: fakeboard.OpWriteDigital, Pin: "dir", Value: 1},
			{Op: fakeboard.OpWritePWM, Pin: "pwm", Value: 155},
			{Op: fakeboard.OpWriteDigital, Pin: "en", Value: 1},
		})
	})

	t.Run("forward", func(t *testing.T) {
		h.board.ResetHistory()
		test.That(t, m.RawSetSpeed(ctx, 100), test.ShouldBeNil)
		test.That(t, m.RawSpeed(), test.ShouldEqual, 100)
		test.That(t, h.board.History(), test.ShouldResemble, []fakeboard.Write{
			{Op: fakeboard.OpWriteDigital, Pin: "dir", Value: 0},
			{Op: fakeboard.OpWritePWM, Pin: "pwm", Value: 100},
			{Op: fakeboard.OpWriteDigital, Pin: "en", Value: 1},
		})
	})

	t.Run("zero is inert whatever came before", func(t *testing.T) {
		for _, before := range []int{-255, -1, 1, 37, 255} {
			test.That(t, m.RawSetSpeed(ctx, before), test.ShouldBeNil)
			test.That(t, m.RawSetSpeed(ctx, 0), test.ShouldBeNil)
			test.That(t, m.RawSpeed(), test.ShouldEqual, 0)
			h.inert(t)
		}
	})

	t.Run("full scale", func(t *testing.T) {
		test.That(t, m.RawSetSpeed(ctx, -255), test.ShouldBeNil)
		test.That(t, h.board.Level("dir"), test.ShouldBeTrue)
		test.That(t, h.board.Duty("pwm"), test.ShouldEqual, uint8(0))
		test.That(t, h.board.Level("en"), test.ShouldBeTrue)

		test.That(t, m.RawSetSpeed(ctx, 255), test.ShouldBeNil)
		test.That(t, h.board.Level("dir"), test.ShouldBeFalse)
		test.That(t, h.board.Duty("pwm"), test.ShouldEqual, uint8(255))
	})

	t.Run("clamped", func(t *testing.T) {
		test.That(t, m.RawSetSpeed(ctx, 1000), test.ShouldBeNil)
		test.That(t, m.RawSpeed(), test.ShouldEqual, 255)
		test.That(t, m.RawSetSpeed(ctx, -1000), test.ShouldBeNil)
		test.That(t, m.RawSpeed(), test.ShouldEqual, -255)
		test.That(t, h.board.Duty("pwm"), test.ShouldEqual, uint8(0))
	})

	t.Run("write errors", func(t *testing.T) {
		h := newHarness(t)
		h.board.FailWith = errors.New("bridge fault")
		err := h.motor.RawSetSpeed(ctx, 10)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "writing direction pin")

		err = h.motor.Stop(ctx)
		test.That(t, err, test.ShouldNotBeNil)
		for _, pin := range []string{"en", "dir", "pwm"} {
			test.That(t, err.Error(), test.ShouldContainSubstring, "writing pin "+pin+" low")
		}
	})
}

func TestPositionPassthrough(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	test.That(t, h.motor.SetPosition(ctx, -42), test.ShouldBeNil)
	ticks, err := h.motor.Position(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ticks, test.ShouldEqual, int64(-42))
}

func TestModeString(t *testing.T) {
	test.That(t, ModeDisabled.String(), test.ShouldEqual, "disabled")
	test.That(t, ModePosition.String(), test.ShouldEqual, "position")
	test.That(t, ModeSpeed.String(), test.ShouldEqual, "speed")
	test.That(t, Mode(7).String(), test.ShouldEqual, "unknown")
}
