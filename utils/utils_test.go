package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestModAngDeg(t *testing.T) {
	for _, tc := range []struct{ in, out int }{
		{0, 0},
		{359, 359},
		{360, 0},
		{721, 1},
		{-60, 300},
		{-360, 0},
		{-721, 359},
	} {
		test.That(t, ModAngDeg(tc.in), test.ShouldEqual, tc.out)
	}
}

func TestNormalizeDeltaDeg(t *testing.T) {
	for _, tc := range []struct{ in, out int }{
		{10 - 350, 20},
		{350 - 10, -20},
		{180, 180},
		{-180, -180},
		{181, -179},
		{-181, 179},
		{359, -1},
		{0, 0},
		{900, 180},
	} {
		test.That(t, NormalizeDeltaDeg(tc.in), test.ShouldEqual, tc.out)
	}

	t.Run("half turn ties are left alone", func(t *testing.T) {
		test.That(t, NormalizeDeltaDeg(-180), test.ShouldEqual, -180)
		test.That(t, NormalizeDeltaDeg(180), test.ShouldEqual, 180)
		test.That(t, NormalizeDeltaDeg(-540), test.ShouldEqual, -180)
		test.That(t, NormalizeDeltaDeg(540), test.ShouldEqual, 180)
	})
}

func TestIntHelpers(t *testing.T) {
	test.That(t, AbsInt64(-7), test.ShouldEqual, int64(7))
	test.That(t, AbsInt64(7), test.ShouldEqual, int64(7))
	test.That(t, ClampInt(300, -255, 255), test.ShouldEqual, 255)
	test.That(t, ClampInt(-300, -255, 255), test.ShouldEqual, -255)
	test.That(t, ClampInt(-12, -255, 255), test.ShouldEqual, -12)
}

func TestStoppableWorkers(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})
	workers := NewStoppableWorkers(func(ctx context.Context) {
		started.Inc()
		close(release)
		<-ctx.Done()
	})
	<-release
	test.That(t, started.Load(), test.ShouldEqual, int32(1))

	workers.Stop()
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	// workers added after Stop never run
	workers.AddWorkers(func(ctx context.Context) { started.Inc() })
	test.That(t, started.Load(), test.ShouldEqual, int32(1))
}
