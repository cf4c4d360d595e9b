// Package clock provides the simulation time source: a pausable clock that
// gates elapsed time, and a real-time driver that feeds it from a ticker.
package clock

// Clock is the only source of elapsed simulation time.
// It is not safe for concurrent use; the owner serialises access.
//
// Invariant: Elapsed() only grows while the clock is running.
type Clock struct {
	paused  bool
	elapsed float64
	ticks   uint64
}

// New returns a running Clock at time zero.
func New() *Clock {
	return &Clock{}
}

// Pause stops time. Idempotent.
func (c *Clock) Pause() { c.paused = true }

// Resume restarts time. Idempotent.
func (c *Clock) Resume() { c.paused = false }

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool { return c.paused }

// Advance consumes a requested step and returns the step the simulation
// should apply.
//
// Postcondition: Returns 0 when paused or when dt <= 0; otherwise returns dt
// and adds it to Elapsed.
func (c *Clock) Advance(dt float64) float64 {
	if c.paused || dt <= 0 {
		return 0
	}
	c.elapsed += dt
	c.ticks++
	return dt
}

// Elapsed returns the total simulated seconds.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Ticks returns the number of non-empty steps applied.
func (c *Clock) Ticks() uint64 { return c.ticks }
