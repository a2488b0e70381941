package operation

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestUntil(t *testing.T) {
	ctx := context.Background()
	p := NewPoller(clock.NewMock())

	steps := 0
	err := p.Until(ctx,
		func(ctx context.Context) (bool, error) { return steps == 5, nil },
		func(ctx context.Context) error {
			steps++
			return nil
		},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldEqual, 5)

	t.Run("condition already true never steps", func(t *testing.T) {
		called := false
		err := p.Until(ctx,
			func(ctx context.Context) (bool, error) { return true, nil },
			func(ctx context.Context) error {
				called = true
				return nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, called, test.ShouldBeFalse)
	})

	t.Run("step error stops the loop", func(t *testing.T) {
		stepErr := errors.New("pin write failed")
		err := p.Until(ctx,
			func(ctx context.Context) (bool, error) { return false, nil },
			func(ctx context.Context) error { return stepErr },
		)
		test.That(t, err, test.ShouldBeError, stepErr)
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		count := 0
		err := p.Until(cancelCtx,
			func(ctx context.Context) (bool, error) { return false, nil },
			func(ctx context.Context) error {
				count++
				if count == 3 {
					cancel()
				}
				return nil
			},
		)
		test.That(t, err, test.ShouldBeError, context.Canceled)
		test.That(t, count, test.ShouldEqual, 3)
	})
}

func TestUntilDeadline(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	p := NewPoller(clk)

	t.Run("reached before deadline", func(t *testing.T) {
		steps := 0
		ok, err := p.UntilTimeout(ctx, 100*time.Millisecond,
			func(ctx context.Context) (bool, error) { return steps == 3, nil },
			func(ctx context.Context) error {
				steps++
				clk.Add(10 * time.Millisecond)
				return nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, steps, test.ShouldEqual, 3)
	})

	t.Run("deadline first", func(t *testing.T) {
		start := clk.Now()
		steps := 0
		ok, err := p.UntilTimeout(ctx, 100*time.Millisecond,
			func(ctx context.Context) (bool, error) { return false, nil },
			func(ctx context.Context) error {
				steps++
				clk.Add(10 * time.Millisecond)
				return nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, steps, test.ShouldEqual, 10)
		test.That(t, clk.Now().Sub(start), test.ShouldEqual, 100*time.Millisecond)
	})

	t.Run("reached at the deadline", func(t *testing.T) {
		steps := 0
		ok, err := p.UntilTimeout(ctx, 30*time.Millisecond,
			func(ctx context.Context) (bool, error) { return steps == 3, nil },
			func(ctx context.Context) error {
				steps++
				clk.Add(10 * time.Millisecond)
				return nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, steps, test.ShouldEqual, 3)
	})

	t.Run("condition error", func(t *testing.T) {
		condErr := errors.New("encoder unavailable")
		ok, err := p.UntilTimeout(ctx, time.Second,
			func(ctx context.Context) (bool, error) { return false, condErr },
			func(ctx context.Context) error { return nil },
		)
		test.That(t, err, test.ShouldBeError, condErr)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestFor(t *testing.T) {
	clk := clock.NewMock()
	p := NewPoller(clk)
	start := p.Now()

	steps := 0
	err := p.For(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		steps++
		clk.Add(5 * time.Millisecond)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldEqual, 10)
	test.That(t, p.Now().Sub(start), test.ShouldEqual, 50*time.Millisecond)
}
