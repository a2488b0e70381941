//go:build linux

package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"go.viam.com/bricktronics/components/board"
	"go.viam.com/bricktronics/components/board/expander"
	"go.viam.com/bricktronics/components/board/genericlinux"
	"go.viam.com/bricktronics/components/encoder/incremental"
	"go.viam.com/bricktronics/components/motor/nxt"
	"go.viam.com/bricktronics/logging"
)

func openHardware(c *cli.Context, logger logging.Logger) (_ *hardware, err error) {
	hw := &hardware{}
	defer func() {
		if err != nil {
			//nolint:errcheck
			hw.Close(context.Background())
		}
	}()

	gpioBoard, err := genericlinux.NewBoard(genericlinux.Config{GPIOChipDev: c.String(flagChip)}, logger.Sublogger("board"))
	if err != nil {
		return nil, err
	}
	hw.closers = append(hw.closers, gpioBoard.Close)

	var drive board.Board = gpioBoard
	if busName := c.String(flagI2CBus); busName != "" {
		shield, err := openShield(c, gpioBoard, busName, hw, logger)
		if err != nil {
			return nil, err
		}
		drive = shield
	}

	enc, err := incremental.NewIncrementalEncoder(
		c.Context,
		gpioBoard,
		incremental.Config{Pins: incremental.Pins{A: c.String(flagEncA), B: c.String(flagEncB)}},
		logger.Sublogger("encoder"),
	)
	if err != nil {
		return nil, err
	}
	hw.closers = append(hw.closers, enc.Close)

	m, err := nxt.NewMotor(drive, enc, motorConfig(c), nil, logger.Sublogger("motor"))
	if err != nil {
		return nil, err
	}
	hw.closers = append(hw.closers, m.Close)
	hw.motor = m
	return hw, nil
}

func openShield(
	c *cli.Context,
	hostBoard board.Board,
	busName string,
	hw *hardware,
	logger logging.Logger,
) (*expander.Shield, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "opening i2c bus %q", busName)
	}
	hw.closers = append(hw.closers, func(context.Context) error { return bus.Close() })

	return expander.NewShield(c.Context, hostBoard, bus, uint16(c.Uint(flagI2CAddr)), logger.Sublogger("expander"))
}
