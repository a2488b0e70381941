package nxt

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/bricktronics/logging"
)

func TestRunner(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	test.That(t, h.motor.Begin(ctx), test.ShouldBeNil)
	logger, logs := logging.NewObservedTestLogger(t)

	r := NewRunner(h.motor, 0, h.clk, logger)
	test.That(t, r.period, test.ShouldEqual, DefaultSampleTime)
	test.That(t, r.Start(), test.ShouldBeNil)
	defer r.Stop()
	test.That(t, r.Start(), test.ShouldBeError, errors.New("runner already started"))

	test.That(t, r.Do(func(m *Motor) error {
		m.GoToPosition(10)
		return nil
	}), test.ShouldBeNil)

	h.clk.Add(DefaultSampleTime)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		var speed int
		test.That(tb, r.Do(func(m *Motor) error {
			speed = m.RawSpeed()
			return nil
		}), test.ShouldBeNil)
		test.That(tb, speed, test.ShouldEqual, -33)
	})

	t.Run("update errors are logged", func(t *testing.T) {
		test.That(t, r.Do(func(m *Motor) error {
			h.enc.FailWith = errors.New("encoder gone")
			return nil
		}), test.ShouldBeNil)

		h.clk.Add(DefaultSampleTime)
		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, logs.FilterMessage("motor update failed").Len(), test.ShouldBeGreaterThan, 0)
		})

		test.That(t, r.Do(func(m *Motor) error {
			h.enc.FailWith = nil
			return nil
		}), test.ShouldBeNil)
	})

	t.Run("do returns errors", func(t *testing.T) {
		err := r.Do(func(m *Motor) error { return m.SetAngleOutputMultiplier(0) })
		test.That(t, err, test.ShouldBeError, errors.New("gear ratio cannot be 0"))
	})

	t.Run("restart", func(t *testing.T) {
		r.Stop()
		r.Stop()
		test.That(t, r.Start(), test.ShouldBeNil)
	})
}
