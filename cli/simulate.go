package cli

import (
	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"

	fakeboard "go.viam.com/bricktronics/components/board/fake"
	fakeencoder "go.viam.com/bricktronics/components/encoder/fake"
	"go.viam.com/bricktronics/components/motor/nxt"
	"go.viam.com/bricktronics/components/motor/sim"
)

var simPins = nxt.PinConfig{Enable: "en", Direction: "dir", PWM: "pwm"}

// SimulateAction moves a simulated motor to an angle against a mock clock and reports the result.
func SimulateAction(c *cli.Context) error {
	logger := newLogger(c).Sublogger("sim")

	clk := clock.NewMock()
	b := fakeboard.NewBoard()
	plant := sim.NewPlant(b, &fakeencoder.Encoder{}, simPins, clk, sim.Config{})

	conf := nxt.DefaultConfig()
	conf.Pins = simPins
	conf.GearRatio = c.Int(flagGear)
	m, err := nxt.NewMotor(b, plant, conf, clk, logger)
	if err != nil {
		return err
	}
	if err := m.Begin(c.Context); err != nil {
		return err
	}
	defer func() {
		if err := m.Close(c.Context); err != nil {
			logger.Warnw("closing simulated motor", "error", err)
		}
	}()
	if err := m.SetAngle(c.Context, c.Int("start-angle")); err != nil {
		return err
	}

	start := clk.Now()
	reached, err := m.GoToAngleWaitTimeout(c.Context, c.Int(flagAngle), c.Duration(flagTimeout))
	if err != nil {
		return err
	}
	m.LogValues()

	ticks, err := m.Position(c.Context)
	if err != nil {
		return err
	}
	angle, err := m.Angle(c.Context)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "reached=%v ticks=%d angle=%d elapsed=%v", reached, ticks, angle, clk.Now().Sub(start))
	return nil
}
