package driver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
)

// Stepper is the part of the simulator the driver needs.
type Stepper interface {
	Step() [][]sim.PID
	Paused() bool
}

// Driver ticks a simulator at a fixed interval. The simulator's paused flag
// is advisory; the driver is what makes it stop time.
type Driver struct {
	target   Stepper
	interval time.Duration
	logger   *zap.Logger
	onStep   func(cycles [][]sim.PID)
}

// Option configures a Driver.
type Option func(*Driver)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// OnStep is called after every executed tick.
func OnStep(fn func(cycles [][]sim.PID)) Option {
	return func(d *Driver) { d.onStep = fn }
}

func New(target Stepper, interval time.Duration, opts ...Option) *Driver {
	d := &Driver{
		target:   target,
		interval: interval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run ticks until ctx is done. A non-positive interval returns at once.
func (d *Driver) Run(ctx context.Context) error {
	if d.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("auto-tick started", zap.Duration("interval", d.interval))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("auto-tick stopped")
			return ctx.Err()
		case <-ticker.C:
			d.tick()
		}
	}
}

// tick runs one step unless the simulator is paused and reports whether it did.
func (d *Driver) tick() bool {
	if d.target.Paused() {
		return false
	}
	cycles := d.target.Step()
	if len(cycles) > 0 {
		d.logger.Debug("deadlock persists", zap.Int("cycles", len(cycles)))
	}
	if d.onStep != nil {
		d.onStep(cycles)
	}
	return true
}
