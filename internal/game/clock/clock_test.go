package clock_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/shipsim/internal/game/clock"
)

func TestClock_PauseStopsTime(t *testing.T) {
	c := clock.New()
	assert.Equal(t, 0.5, c.Advance(0.5))
	c.Pause()
	assert.True(t, c.Paused())
	assert.Equal(t, 0.0, c.Advance(1.0))
	assert.InDelta(t, 0.5, c.Elapsed(), 1e-12)
	c.Resume()
	assert.Equal(t, 0.25, c.Advance(0.25))
	assert.InDelta(t, 0.75, c.Elapsed(), 1e-12)
	assert.Equal(t, uint64(2), c.Ticks())
}

func TestClock_IgnoresNonPositiveSteps(t *testing.T) {
	c := clock.New()
	assert.Equal(t, 0.0, c.Advance(0))
	assert.Equal(t, 0.0, c.Advance(-1))
	assert.Equal(t, uint64(0), c.Ticks())
}

func TestProperty_Clock_ElapsedIsSumOfRunningSteps(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := clock.New()
		steps := rapid.SliceOfN(rapid.Float64Range(0, 1), 0, 50).Draw(rt, "steps")
		pauses := rapid.SliceOfN(rapid.Bool(), len(steps), len(steps)).Draw(rt, "pauses")
		want := 0.0
		for i, dt := range steps {
			if pauses[i] {
				c.Pause()
			} else {
				c.Resume()
				want += dt
			}
			c.Advance(dt)
		}
		assert.InDelta(rt, want, c.Elapsed(), 1e-9)
	})
}

func TestDriver_StepsUntilDone(t *testing.T) {
	var calls atomic.Int32
	d := clock.NewDriver(5*time.Millisecond, func(dt float64) bool {
		return calls.Add(1) >= 3
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDriver_PassesElapsedSeconds(t *testing.T) {
	var total atomic.Int64
	d := clock.NewDriver(10*time.Millisecond, func(dt float64) bool {
		total.Add(int64(dt * 1e6))
		return true
	})
	require.NoError(t, d.Run(context.Background()))
	assert.Greater(t, total.Load(), int64(0))
}

func TestDriver_CancelStops(t *testing.T) {
	d := clock.NewDriver(5*time.Millisecond, func(float64) bool { return false })
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Run(ctx), context.DeadlineExceeded)
}

func TestDriver_StartStop(t *testing.T) {
	d := clock.NewDriver(5*time.Millisecond, func(float64) bool { return false })
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start() }()
	time.Sleep(20 * time.Millisecond)
	d.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	d.Stop()
}

func TestNewDriver_PanicsOnBadInterval(t *testing.T) {
	assert.Panics(t, func() { clock.NewDriver(0, func(float64) bool { return true }) })
}
