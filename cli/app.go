// Package cli contains the nxtmotor command line application.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"go.viam.com/bricktronics/components/board/expander"
	"go.viam.com/bricktronics/components/motor/nxt"
	"go.viam.com/bricktronics/logging"
)

const (
	flagDebug    = "debug"
	flagChip     = "chip"
	flagEnable   = "en"
	flagDir      = "dir"
	flagPWM      = "pwm"
	flagEncA     = "enc-a"
	flagEncB     = "enc-b"
	flagGear     = "gear"
	flagTimeout  = "timeout"
	flagAngle    = "angle"
	flagPosition = "position"
	flagSpeed    = "speed"
	flagDuration = "duration"
	flagI2CBus   = "i2c-bus"
	flagI2CAddr  = "i2c-addr"
)

var hardwareFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  flagChip,
		Value: "/dev/gpiochip0",
		Usage: "gpio character device",
	},
	&cli.StringFlag{
		Name:     flagEnable,
		Required: true,
		Usage:    "enable pin",
	},
	&cli.StringFlag{
		Name:     flagDir,
		Required: true,
		Usage:    "direction pin",
	},
	&cli.StringFlag{
		Name:     flagPWM,
		Required: true,
		Usage:    "pwm pin, always on the host board",
	},
	&cli.StringFlag{
		Name:     flagEncA,
		Required: true,
		Usage:    "encoder channel a pin",
	},
	&cli.StringFlag{
		Name:     flagEncB,
		Required: true,
		Usage:    "encoder channel b pin",
	},
	&cli.StringFlag{
		Name:  flagI2CBus,
		Usage: "i2c bus of an mcp23017 port expander; pins named x0..x15 are then on the expander",
	},
	&cli.UintFlag{
		Name:  flagI2CAddr,
		Value: uint(expander.DefaultAddress),
		Usage: "i2c address of the port expander",
	},
}

func withHardwareFlags(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, hardwareFlags...), flags...)
}

var gearFlag = &cli.IntFlag{
	Name:  flagGear,
	Value: nxt.DefaultGearRatio,
	Usage: "gear ratio between the motor and the output shaft",
}

var timeoutFlag = &cli.DurationFlag{
	Name:  flagTimeout,
	Value: 5 * time.Second,
	Usage: "give up waiting after this long",
}

var app = &cli.App{
	Name:            "nxtmotor",
	Usage:           "drive a LEGO NXT motor under position control",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "simulate",
			Usage:  "move a simulated motor to an angle",
			Action: SimulateAction,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  flagAngle,
					Value: 90,
					Usage: "target angle in degrees",
				},
				&cli.IntFlag{
					Name:  "start-angle",
					Usage: "angle the simulated motor starts at",
				},
				gearFlag,
				timeoutFlag,
			},
		},
		{
			Name:   "raw",
			Usage:  "drive the motor open loop for a while",
			Action: RawAction,
			Flags: withHardwareFlags(
				&cli.IntFlag{
					Name:     flagSpeed,
					Required: true,
					Usage:    "drive command from -255 to 255",
				},
				&cli.DurationFlag{
					Name:  flagDuration,
					Value: time.Second,
					Usage: "how long to drive",
				},
			),
		},
		{
			Name:   "goto",
			Usage:  "move the motor to an encoder position and wait",
			Action: GoToAction,
			Flags: withHardwareFlags(
				&cli.Int64Flag{
					Name:     flagPosition,
					Required: true,
					Usage:    "target position in ticks",
				},
				gearFlag,
				timeoutFlag,
			),
		},
		{
			Name:   "angle",
			Usage:  "move the output shaft to an angle and wait",
			Action: AngleAction,
			Flags: withHardwareFlags(
				&cli.IntFlag{
					Name:     flagAngle,
					Required: true,
					Usage:    "target angle in degrees",
				},
				gearFlag,
				timeoutFlag,
			),
		},
		{
			Name:   "hold",
			Usage:  "hold an encoder position in the background for a while",
			Action: HoldAction,
			Flags: withHardwareFlags(
				&cli.Int64Flag{
					Name:     flagPosition,
					Required: true,
					Usage:    "position to hold in ticks",
				},
				&cli.DurationFlag{
					Name:  flagDuration,
					Value: 10 * time.Second,
					Usage: "how long to hold",
				},
				gearFlag,
			),
		},
	},
}

// NewApp returns the nxtmotor application writing to the given streams.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("nxtmotor")
	}
	return logging.NewLogger("nxtmotor")
}

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
