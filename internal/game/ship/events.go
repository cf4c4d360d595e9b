package ship

// EventKind classifies telemetry emitted by the simulation.
type EventKind int

const (
	// EventSystemOffline fires when damage takes a subsystem's effective power to 0.
	EventSystemOffline EventKind = iota
	// EventFireStarted fires when a room catches fire.
	EventFireStarted
	// EventShipDestroyed fires when a hull reaches 0.
	EventShipDestroyed
	// EventBreachOpened fires when a room's hull is breached.
	EventBreachOpened
	// EventCrewIncapacitated fires when a crew agent's health reaches 0.
	EventCrewIncapacitated
)

// String returns a stable label for the kind.
func (k EventKind) String() string {
	switch k {
	case EventSystemOffline:
		return "system_offline"
	case EventFireStarted:
		return "fire_started"
	case EventShipDestroyed:
		return "ship_destroyed"
	case EventBreachOpened:
		return "breach_opened"
	case EventCrewIncapacitated:
		return "crew_incapacitated"
	default:
		return "unknown"
	}
}

// Event is one telemetry record. Fields that do not apply to Kind are empty.
type Event struct {
	Kind   EventKind
	ShipID string
	RoomID string
	System Kind
	CrewID string
}
