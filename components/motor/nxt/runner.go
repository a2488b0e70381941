package nxt

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/bricktronics/logging"
	"go.viam.com/bricktronics/utils"
)

// Runner calls Update on a period in the background. Everything else that touches the motor
// while the runner is started must go through Do.
type Runner struct {
	motor  *Motor
	clock  clock.Clock
	period time.Duration
	logger logging.Logger

	mu      sync.Mutex
	workers utils.StoppableWorkers
}

// NewRunner returns a stopped runner for m. A zero period uses the motor's sample time.
func NewRunner(m *Motor, period time.Duration, clk clock.Clock, logger logging.Logger) *Runner {
	if period <= 0 {
		period = m.SampleTime()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{motor: m, clock: clk, period: period, logger: logger}
}

// Start begins updating the motor. It fails if the runner is already started.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workers != nil {
		return errors.New("runner already started")
	}

	ticker := r.clock.Ticker(r.period)
	r.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := r.update(ctx); err != nil {
				r.logger.Warnw("motor update failed", "error", err)
			}
		}
	})
	r.logger.Debugw("runner started", "period", r.period)
	return nil
}

func (r *Runner) update(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	return r.motor.Update(ctx)
}

// Do runs f with exclusive access to the motor.
func (r *Runner) Do(f func(m *Motor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return f(r.motor)
}

// Stop ends the background updates and waits for the last one to finish. The motor itself is not
// stopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	workers := r.workers
	r.workers = nil
	r.mu.Unlock()

	if workers != nil {
		workers.Stop()
	}
}
