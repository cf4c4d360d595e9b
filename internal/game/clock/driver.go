package clock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// StepFunc advances a simulation by dt seconds and reports whether it has finished.
type StepFunc func(dt float64) (done bool)

// Driver calls a StepFunc on a fixed real-time interval, passing the measured
// wall-clock seconds since the previous call.
//
// Invariant: step is invoked sequentially from a single goroutine.
type Driver struct {
	interval time.Duration
	step     StepFunc

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

// NewDriver returns a Driver that calls step every interval.
//
// Precondition: interval must be > 0; step must not be nil.
func NewDriver(interval time.Duration, step StepFunc) *Driver {
	if interval <= 0 {
		panic("clock.NewDriver: interval must be > 0")
	}
	if step == nil {
		panic("clock.NewDriver: step must not be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{interval: interval, step: step, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Run blocks, stepping the simulation until step reports done or ctx is cancelled.
//
// Postcondition: Returns nil when step finished, or ctx.Err() on cancellation.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if d.step(dt) {
				return nil
			}
		}
	}
}

// Start runs the driver until Stop is called or the simulation finishes.
// It satisfies server.Service.
//
// Postcondition: Returns an error if the driver was already started.
func (d *Driver) Start() error {
	if !d.started.CompareAndSwap(false, true) {
		return errors.New("clock: driver already started")
	}
	defer close(d.done)
	err := d.Run(d.ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop cancels a running Start and waits for it to return. Safe to call
// before Start or more than once.
func (d *Driver) Stop() {
	d.cancel()
	if d.started.Load() {
		<-d.done
	}
}

// Done is closed once Start has returned.
func (d *Driver) Done() <-chan struct{} { return d.done }
