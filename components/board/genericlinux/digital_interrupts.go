//go:build linux

package genericlinux

import (
	"context"

	"github.com/mkch/gpio"
	"go.viam.com/utils"

	"go.viam.com/bricktronics/components/board"
)

type digitalInterrupt struct {
	*board.BasicDigitalInterrupt
	line *gpio.LineWithEvent
}

// Must be called with the board mutex held.
func (b *Board) createDigitalInterrupt(name string, offset uint32) (*digitalInterrupt, error) {
	chip, err := gpio.OpenChip(b.conf.GPIOChipDev)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(chip.Close)

	line, err := chip.OpenLineWithEvents(offset, gpio.Input, gpio.BothEdges, consumer)
	if err != nil {
		return nil, err
	}
	di := &digitalInterrupt{BasicDigitalInterrupt: board.NewBasicDigitalInterrupt(name), line: line}

	b.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			select {
			case <-b.cancelCtx.Done():
				return
			case event := <-line.Events():
				utils.UncheckedError(di.Tick(b.cancelCtx, event.RisingEdge, uint64(event.Time.UnixNano())))
			}
		}
	}, b.activeBackgroundWorkers.Done)
	return di, nil
}

// Value reads the line directly rather than trusting the last edge.
func (di *digitalInterrupt) Value(ctx context.Context) (bool, error) {
	value, err := di.line.Value()
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

func (di *digitalInterrupt) Close() error {
	return di.line.Close()
}
