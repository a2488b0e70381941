package nxt

import (
	"context"
	"math"
	"time"

	"go.uber.org/multierr"

	"go.viam.com/bricktronics/operation"
	"go.viam.com/bricktronics/utils"
)

// SettledAtPosition reports whether the motor is within epsilon of target and the PID is no
// longer pushing hard.
func (m *Motor) SettledAtPosition(ctx context.Context, target int64) (bool, error) {
	ticks, err := m.enc.Position(ctx)
	if err != nil {
		return false, err
	}
	return utils.AbsInt64(ticks-target) < int64(m.epsilon) &&
		math.Abs(m.pid.Output()) < SettledOutputThreshold, nil
}

func (m *Motor) settledAt(target int64) operation.Condition {
	return func(ctx context.Context) (bool, error) {
		return m.SettledAtPosition(ctx, target)
	}
}

// stop is Stop with a context that outlives cancellation of ctx, so the motor is stopped even when
// the wait was cancelled.
func (m *Motor) stop(ctx context.Context) error {
	return m.Stop(context.WithoutCancel(ctx))
}

// GoToPositionWait drives to target and stops once settled. It only returns early on an error or
// when ctx is done; either way the motor is stopped.
func (m *Motor) GoToPositionWait(ctx context.Context, target int64) error {
	m.GoToPosition(target)
	err := m.poller.Until(ctx, m.settledAt(target), m.Update)
	return multierr.Combine(err, m.stop(ctx))
}

// GoToPositionWaitTimeout is GoToPositionWait bounded by timeout. It returns whether the motor
// settled before the timeout. The motor is stopped either way.
func (m *Motor) GoToPositionWaitTimeout(ctx context.Context, target int64, timeout time.Duration) (bool, error) {
	m.GoToPosition(target)
	reached, err := m.poller.UntilTimeout(ctx, timeout, m.settledAt(target), m.Update)
	return reached, multierr.Combine(err, m.stop(ctx))
}

// DelayUpdate keeps calling Update until d has passed.
func (m *Motor) DelayUpdate(ctx context.Context, d time.Duration) error {
	return m.poller.For(ctx, d, m.Update)
}
