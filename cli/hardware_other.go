//go:build !linux

package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/bricktronics/logging"
)

func openHardware(c *cli.Context, logger logging.Logger) (*hardware, error) {
	return nil, errors.New("hardware commands need a linux gpio character device, try simulate")
}
