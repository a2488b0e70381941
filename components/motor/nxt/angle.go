package nxt

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/bricktronics/utils"
)

// AngleMultiplier returns ticks per output degree.
func (m *Motor) AngleMultiplier() int {
	return m.angleMultiplier
}

// SetAngleOutputMultiplier sets the gear ratio between the motor and the output shaft. The
// encoder gives two ticks per motor degree.
func (m *Motor) SetAngleOutputMultiplier(gearRatio int) error {
	if gearRatio == 0 {
		return errors.New("gear ratio cannot be 0")
	}
	m.angleMultiplier = gearRatio << 1
	return nil
}

// Angle returns the output shaft angle in [0, 359].
func (m *Motor) Angle(ctx context.Context) (int, error) {
	ticks, err := m.enc.Position(ctx)
	if err != nil {
		return 0, err
	}
	return utils.ModAngDeg(int(ticks / int64(m.angleMultiplier) % 360)), nil
}

// SetAngle redefines the current shaft angle.
func (m *Motor) SetAngle(ctx context.Context, angle int) error {
	return m.enc.SetPosition(ctx, int64(angle%360)*int64(m.angleMultiplier))
}

// DestinationForAngle returns the tick count that reaches angle the short way around.
func (m *Motor) DestinationForAngle(ctx context.Context, angle int) (int64, error) {
	current, err := m.Angle(ctx)
	if err != nil {
		return 0, err
	}
	ticks, err := m.enc.Position(ctx)
	if err != nil {
		return 0, err
	}
	delta := utils.NormalizeDeltaDeg(angle%360 - current)
	return ticks + int64(delta)*int64(m.angleMultiplier), nil
}

// GoToAngle is GoToPosition for the shortest move to angle.
func (m *Motor) GoToAngle(ctx context.Context, angle int) error {
	dest, err := m.DestinationForAngle(ctx, angle)
	if err != nil {
		return err
	}
	m.GoToPosition(dest)
	return nil
}

// GoToAngleWait is GoToPositionWait for the shortest move to angle.
func (m *Motor) GoToAngleWait(ctx context.Context, angle int) error {
	dest, err := m.DestinationForAngle(ctx, angle)
	if err != nil {
		return err
	}
	return m.GoToPositionWait(ctx, dest)
}

// GoToAngleWaitTimeout is GoToPositionWaitTimeout for the shortest move to angle.
func (m *Motor) GoToAngleWaitTimeout(ctx context.Context, angle int, timeout time.Duration) (bool, error) {
	dest, err := m.DestinationForAngle(ctx, angle)
	if err != nil {
		return false, err
	}
	return m.GoToPositionWaitTimeout(ctx, dest, timeout)
}
