package ship

// Room is one compartment of a ship.
type Room struct {
	ID   string
	Name string
	// System is the kind of the subsystem housed here; empty for rooms without one.
	System Kind
	// X and Y are the anchor crew walk to.
	X, Y float64
	// Adjacent lists rooms a fire here can spread to.
	Adjacent []string
	// Fire is the active fire, nil when the room is not burning.
	Fire *Fire
	// Breached is true while the hull is open to space here.
	Breached bool
}

// Burning reports whether the room has an active fire.
func (r *Room) Burning() bool { return r.Fire != nil }
