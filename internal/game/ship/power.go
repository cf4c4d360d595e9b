package ship

// PowerGrid routes reactor power to subsystems.
//
// Invariant: sum(allocated) <= reactor and every subsystem's allocated <= Level.
type PowerGrid struct {
	reactor int
	systems map[Kind]*Subsystem
}

// NewPowerGrid returns a grid over systems with the given reactor capacity.
//
// Precondition: reactor >= 0; systems must not be nil.
func NewPowerGrid(reactor int, systems map[Kind]*Subsystem) *PowerGrid {
	return &PowerGrid{reactor: reactor, systems: systems}
}

// Reactor returns the reactor capacity.
func (g *PowerGrid) Reactor() int { return g.reactor }

// Used returns the total allocated power.
func (g *PowerGrid) Used() int {
	used := 0
	for _, s := range g.systems {
		used += s.allocated
	}
	return used
}

// Available returns unallocated reactor power.
func (g *PowerGrid) Available() int { return g.reactor - g.Used() }

// Allocate moves one unit of power into (delta=+1) or out of (delta=-1) the
// subsystem of the given kind.
//
// Postcondition: Returns false and changes nothing when delta is not ±1, the
// kind is unknown, the reactor is exhausted, the subsystem is at its level, or
// the subsystem is already unpowered.
func (g *PowerGrid) Allocate(kind Kind, delta int) bool {
	s, ok := g.systems[kind]
	if !ok {
		return false
	}
	switch delta {
	case 1:
		if s.allocated >= s.Level || g.Used() >= g.reactor {
			return false
		}
	case -1:
		if s.allocated <= 0 {
			return false
		}
	default:
		return false
	}
	s.allocated += delta
	return true
}
