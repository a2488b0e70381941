package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/bricktronics/components/motor/nxt"
	"go.viam.com/bricktronics/logging"
)

// hardware is a motor on a real board along with everything that has to be closed after it.
type hardware struct {
	motor   *nxt.Motor
	closers []func(context.Context) error
}

func (h *hardware) Close(ctx context.Context) error {
	var errs error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = multierr.Combine(errs, h.closers[i](ctx))
	}
	return errs
}

func motorConfig(c *cli.Context) nxt.Config {
	conf := nxt.DefaultConfig()
	conf.Pins = nxt.PinConfig{
		Enable:    c.String(flagEnable),
		Direction: c.String(flagDir),
		PWM:       c.String(flagPWM),
	}
	if c.IsSet(flagGear) {
		conf.GearRatio = c.Int(flagGear)
	}
	return conf
}

// withMotor opens the hardware, begins the motor, runs f and closes everything.
func withMotor(c *cli.Context, f func(m *nxt.Motor, logger logging.Logger) error) (err error) {
	logger := newLogger(c)
	hw, err := openHardware(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, hw.Close(context.WithoutCancel(c.Context)))
	}()
	if err := hw.motor.Begin(c.Context); err != nil {
		return err
	}
	return f(hw.motor, logger)
}

// RawAction drives the motor open loop.
func RawAction(c *cli.Context) error {
	return withMotor(c, func(m *nxt.Motor, logger logging.Logger) error {
		if err := m.RawSetSpeed(c.Context, c.Int(flagSpeed)); err != nil {
			return err
		}
		goutils.SelectContextOrWait(c.Context, c.Duration(flagDuration))
		if err := m.Stop(context.WithoutCancel(c.Context)); err != nil {
			return err
		}
		ticks, err := m.Position(c.Context)
		if err != nil {
			return err
		}
		printf(c.App.Writer, "speed=%d ticks=%d", m.RawSpeed(), ticks)
		return nil
	})
}

// GoToAction moves to an encoder position.
func GoToAction(c *cli.Context) error {
	return withMotor(c, func(m *nxt.Motor, logger logging.Logger) error {
		reached, err := m.GoToPositionWaitTimeout(c.Context, c.Int64(flagPosition), c.Duration(flagTimeout))
		if err != nil {
			return err
		}
		return report(c, m, reached)
	})
}

// AngleAction moves the output shaft to an angle.
func AngleAction(c *cli.Context) error {
	return withMotor(c, func(m *nxt.Motor, logger logging.Logger) error {
		reached, err := m.GoToAngleWaitTimeout(c.Context, c.Int(flagAngle), c.Duration(flagTimeout))
		if err != nil {
			return err
		}
		return report(c, m, reached)
	})
}

// HoldAction holds a position with the control loop running in the background.
func HoldAction(c *cli.Context) error {
	return withMotor(c, func(m *nxt.Motor, logger logging.Logger) error {
		runner := nxt.NewRunner(m, 0, nil, logger.Sublogger("runner"))
		if err := runner.Do(func(m *nxt.Motor) error {
			m.GoToPosition(c.Int64(flagPosition))
			return nil
		}); err != nil {
			return err
		}
		if err := runner.Start(); err != nil {
			return err
		}
		goutils.SelectContextOrWait(c.Context, c.Duration(flagDuration))
		runner.Stop()

		if err := m.Stop(context.WithoutCancel(c.Context)); err != nil {
			return err
		}
		settled, err := m.SettledAtPosition(c.Context, c.Int64(flagPosition))
		if err != nil {
			return err
		}
		return report(c, m, settled)
	})
}

func report(c *cli.Context, m *nxt.Motor, reached bool) error {
	ticks, err := m.Position(c.Context)
	if err != nil {
		return errors.Wrap(err, "reading final position")
	}
	angle, err := m.Angle(c.Context)
	if err != nil {
		return errors.Wrap(err, "reading final angle")
	}
	m.LogValues()
	printf(c.App.Writer, "reached=%v ticks=%d angle=%d", reached, ticks, angle)
	return nil
}
