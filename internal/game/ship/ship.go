package ship

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/rules"
)

// Command rejections. Callers compare with errors.Is; state is unchanged when
// one is returned.
var (
	ErrUnknownCrew       = errors.New("unknown crew agent")
	ErrUnknownRoom       = errors.New("unknown room")
	ErrCrewIncapacitated = errors.New("crew agent is incapacitated")
	ErrCrewMoving        = errors.New("crew agent is moving")
	ErrRepairCooldown    = errors.New("crew agent is still recovering from the last repair")
	ErrNothingToRepair   = errors.New("nothing to repair in this room")
)

// Ship is one combatant spacecraft.
//
// Invariant: 0 <= hull <= maxHull; the power grid invariant holds; at most one
// fire per room. A Ship is not safe for concurrent use.
type Ship struct {
	ID    string
	Name  string
	Class string
	// BaseEvasion is the evasion percentage granted by a crewed helm.
	BaseEvasion float64
	// PilotRoom is the helm; evasion is zero while nobody stands in it.
	PilotRoom string
	// AutoRepair makes idle crew repair their room without orders.
	AutoRepair bool
	// Scrap is the dice expression rolled for the victor when this ship is destroyed.
	Scrap string
	// Loot is the salvage table rolled alongside Scrap; nil when the ship yields none.
	Loot *LootTable

	Shields *ShieldLayer
	Weapons []*Weapon
	Crew    []*CrewAgent

	hull      int
	maxHull   int
	oxygen    float64
	grid      *PowerGrid
	systems   map[Kind]*Subsystem
	rooms     []*Room
	roomIndex map[string]*Room
	rules     rules.Rules
	// repairErr holds the first unexpected auto-repair failure.
	repairErr error
}

// Hull returns current hull points.
func (s *Ship) Hull() int { return s.hull }

// MaxHull returns maximum hull points.
func (s *Ship) MaxHull() int { return s.maxHull }

// Destroyed reports whether the hull has reached 0.
func (s *Ship) Destroyed() bool { return s.hull <= 0 }

// HullPercent returns hull as a percentage of max hull.
func (s *Ship) HullPercent() float64 {
	if s.maxHull <= 0 {
		return 0
	}
	return float64(s.hull) / float64(s.maxHull) * 100
}

// Oxygen returns the cabin oxygen level.
func (s *Ship) Oxygen() float64 { return s.oxygen }

// Rules returns the tuning this ship was built with.
func (s *Ship) Rules() rules.Rules { return s.rules }

// Grid returns the ship's power grid.
func (s *Ship) Grid() *PowerGrid { return s.grid }

// System returns the subsystem of kind.
//
// Postcondition: Returns a non-nil Subsystem for every kind in Kinds.
func (s *Ship) System(kind Kind) *Subsystem { return s.systems[kind] }

// Rooms returns the rooms in layout order.
func (s *Ship) Rooms() []*Room {
	out := make([]*Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Room looks up a room by id.
func (s *Ship) Room(id string) (*Room, bool) {
	r, ok := s.roomIndex[id]
	return r, ok
}

// CrewByID looks up a crew agent.
func (s *Ship) CrewByID(id string) (*CrewAgent, bool) {
	for _, c := range s.Crew {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// ConsciousCrew returns every crew agent that is not incapacitated.
func (s *Ship) ConsciousCrew() []*CrewAgent {
	var out []*CrewAgent
	for _, c := range s.Crew {
		if !c.Incapacitated() {
			out = append(out, c)
		}
	}
	return out
}

// Occupants returns the conscious, stationary crew standing in roomID.
// Only these crew pilot, fight fires, heal and repair.
func (s *Ship) Occupants(roomID string) []*CrewAgent {
	var out []*CrewAgent
	for _, c := range s.Crew {
		if c.Room == roomID && !c.Moving() && !c.Incapacitated() {
			out = append(out, c)
		}
	}
	return out
}

// Fires returns the active fires in room order.
func (s *Ship) Fires() []*Fire {
	var out []*Fire
	for _, r := range s.rooms {
		if r.Fire != nil {
			out = append(out, r.Fire)
		}
	}
	return out
}

// Evasion returns the percentage chance an incoming shot misses.
//
// Postcondition: 0 <= result <= 100; result == 0 when nobody mans the helm.
func (s *Ship) Evasion() float64 {
	if s.PilotRoom == "" || len(s.Occupants(s.PilotRoom)) == 0 {
		return 0
	}
	engines := s.systems[Engines]
	ev := s.BaseEvasion + float64(engines.EffectivePower())*s.rules.EnginesEvasionFactor
	if engines.Damaged() && engines.EffectivePower() > 0 {
		ev *= s.rules.DamagedEnginesEvasionScale
	}
	return math.Max(0, math.Min(100, ev))
}

// FundedWeapons returns how many weapons, counted from the first, the weapons
// subsystem currently powers.
func (s *Ship) FundedWeapons() int {
	eff := s.systems[Weapons].EffectivePower()
	if s.rules.WeaponFunding == rules.FundingCost {
		n, used := 0, 0
		for _, w := range s.Weapons {
			if used+w.PowerCost > eff {
				break
			}
			used += w.PowerCost
			n++
		}
		return n
	}
	if eff > len(s.Weapons) {
		return len(s.Weapons)
	}
	return eff
}

// WeaponFunded reports whether the weapon at index may charge and fire.
func (s *Ship) WeaponFunded(index int) bool {
	return index >= 0 && index < s.FundedWeapons()
}

// AllocatePower routes one unit of power; see PowerGrid.Allocate.
// Shield capacity follows the new allocation immediately.
func (s *Ship) AllocatePower(kind Kind, delta int) bool {
	if !s.grid.Allocate(kind, delta) {
		return false
	}
	if kind == Shields {
		s.syncShields()
	}
	return true
}

// RaiseShields recomputes the shield cap and fills every layer, used when an
// engagement starts.
func (s *Ship) RaiseShields() {
	s.syncShields()
	s.Shields.Fill()
}

// DamageHull removes n hull points, clamping at 0.
//
// Postcondition: Returns an EventShipDestroyed event iff this call destroyed the ship.
func (s *Ship) DamageHull(n int) []Event {
	if n <= 0 || s.hull <= 0 {
		return nil
	}
	s.hull -= n
	if s.hull > 0 {
		return nil
	}
	s.hull = 0
	return []Event{{Kind: EventShipDestroyed, ShipID: s.ID}}
}

// DamageRoomSystem damages the subsystem housed in roomID by n.
//
// Postcondition: Returns an EventSystemOffline event iff the subsystem was disabled by this call.
func (s *Ship) DamageRoomSystem(roomID string, n int) []Event {
	room, ok := s.roomIndex[roomID]
	if !ok || room.System == "" {
		return nil
	}
	sys := s.systems[room.System]
	offline := sys.ApplyDamage(n)
	if sys.Kind == Shields {
		s.syncShields()
	}
	if !offline {
		return nil
	}
	return []Event{{Kind: EventSystemOffline, ShipID: s.ID, RoomID: roomID, System: sys.Kind}}
}

// Ignite starts a fire in roomID unless one is already burning.
func (s *Ship) Ignite(roomID string) []Event {
	room, ok := s.roomIndex[roomID]
	if !ok || room.Burning() {
		return nil
	}
	room.Fire = &Fire{RoomID: roomID, Remaining: s.rules.FireDuration}
	return []Event{{Kind: EventFireStarted, ShipID: s.ID, RoomID: roomID}}
}

// Breach opens the hull in roomID unless it is already open.
func (s *Ship) Breach(roomID string) []Event {
	room, ok := s.roomIndex[roomID]
	if !ok || room.Breached {
		return nil
	}
	room.Breached = true
	return []Event{{Kind: EventBreachOpened, ShipID: s.ID, RoomID: roomID}}
}

// OrderCrew sends a crew agent toward roomID. A newer order replaces an older one.
func (s *Ship) OrderCrew(crewID, roomID string) error {
	c, ok := s.CrewByID(crewID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCrew, crewID)
	}
	if _, ok := s.roomIndex[roomID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRoom, roomID)
	}
	if c.Incapacitated() {
		return fmt.Errorf("%s: %w", c.Name, ErrCrewIncapacitated)
	}
	if roomID == c.Room && !c.Moving() {
		return nil
	}
	c.Target = roomID
	return nil
}

// Repair has a crew agent seal the breach in, or else repair the subsystem of,
// the room they stand in.
//
// Precondition: the agent is conscious, stationary and off cooldown.
// Postcondition: on success the agent's repair cooldown is restarted.
func (s *Ship) Repair(crewID string) error {
	c, ok := s.CrewByID(crewID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCrew, crewID)
	}
	switch {
	case c.Incapacitated():
		return fmt.Errorf("%s: %w", c.Name, ErrCrewIncapacitated)
	case c.Moving():
		return fmt.Errorf("%s: %w", c.Name, ErrCrewMoving)
	case c.repairCooldown > 0:
		return fmt.Errorf("%s: %w", c.Name, ErrRepairCooldown)
	}
	room, ok := s.roomIndex[c.Room]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRoom, c.Room)
	}
	switch {
	case room.Breached:
		room.Breached = false
	case room.System != "" && s.systems[room.System].Damaged():
		s.systems[room.System].Repair(s.rules.RepairAmount)
		if room.System == Shields {
			s.syncShields()
		}
	default:
		return fmt.Errorf("%s in %s: %w", c.Name, room.ID, ErrNothingToRepair)
	}
	speed := c.RepairSpeed
	if speed <= 0 {
		speed = 1
	}
	c.repairCooldown = s.rules.RepairCooldown / speed
	return nil
}

// Tick advances the ship by dt seconds: power effects, weapon charge, shield
// regeneration, crew, fires, then oxygen.
//
// Postcondition: Returns the telemetry produced during the step.
func (s *Ship) Tick(dt float64, src dice.Source) []Event {
	if dt <= 0 {
		return nil
	}
	s.syncShields()
	s.chargeWeapons(dt)
	s.Shields.regen(dt, s.systems[Shields].EffectivePower())
	s.tickCrew(dt)

	var events []Event
	events = append(events, s.tickFires(dt, src)...)
	events = append(events, s.tickOxygen(dt)...)
	return events
}

func (s *Ship) syncShields() {
	s.Shields.Sync(s.systems[Shields].EffectivePower())
}

func (s *Ship) chargeWeapons(dt float64) {
	funded := s.FundedWeapons()
	rate := 1 + s.manningBonus()
	for i, w := range s.Weapons {
		if i >= funded {
			continue
		}
		w.advance(dt*rate, dt)
	}
}

// manningBonus is the best combat bonus among crew standing in the weapons room.
func (s *Ship) manningBonus() float64 {
	roomID := s.systems[Weapons].RoomID
	if roomID == "" {
		return 0
	}
	best := 0.0
	for _, c := range s.Occupants(roomID) {
		best = math.Max(best, c.CombatBonus)
	}
	return best
}

func (s *Ship) tickCrew(dt float64) {
	for _, c := range s.Crew {
		if c.Incapacitated() {
			continue
		}
		c.repairCooldown = math.Max(0, c.repairCooldown-dt)
		if !c.Moving() {
			continue
		}
		room, ok := s.roomIndex[c.Target]
		if !ok {
			c.Target = ""
			continue
		}
		c.walk(room, s.rules.CrewSpeed*dt)
	}

	if med := s.systems[Medbay]; med.RoomID != "" && med.EffectivePower() > 0 {
		amount := float64(med.EffectivePower()) * s.rules.HealRatePerPower * dt
		for _, c := range s.Occupants(med.RoomID) {
			c.heal(amount)
		}
	}

	if s.AutoRepair {
		for _, c := range s.Crew {
			if c.Incapacitated() || c.Moving() || c.repairCooldown > 0 {
				continue
			}
			if err := s.Repair(c.ID); err != nil && !errors.Is(err, ErrNothingToRepair) && s.repairErr == nil {
				s.repairErr = err
			}
		}
	}
}

func (s *Ship) tickOxygen(dt float64) []Event {
	if p := s.systems[LifeSupport].EffectivePower(); p > 0 {
		s.oxygen += float64(p) * s.rules.OxygenRegenPerPower * dt
	} else {
		s.oxygen -= s.rules.OxygenDecayRate * dt
	}
	for _, r := range s.rooms {
		if r.Breached {
			s.oxygen -= s.rules.BreachLeakRate * dt
		}
	}
	s.oxygen = math.Max(0, math.Min(s.rules.OxygenMax, s.oxygen))

	if s.oxygen >= s.rules.SuffocationThreshold {
		return nil
	}
	var events []Event
	for _, c := range s.Crew {
		if c.hurt(s.rules.SuffocationDamage * dt) {
			events = append(events, Event{Kind: EventCrewIncapacitated, ShipID: s.ID, RoomID: c.Room, CrewID: c.ID})
		}
	}
	return events
}

// CheckInvariants verifies every structural invariant of the ship.
//
// Postcondition: Returns nil when all invariants hold, or an error listing every violation.
func (s *Ship) CheckInvariants() error {
	var errs []string
	if used := s.grid.Used(); used > s.grid.Reactor() {
		errs = append(errs, fmt.Sprintf("allocated power %d exceeds reactor %d", used, s.grid.Reactor()))
	}
	for _, k := range Kinds {
		sys := s.systems[k]
		if sys.allocated < 0 || sys.allocated > sys.Level {
			errs = append(errs, fmt.Sprintf("%s allocated %d outside [0, %d]", k, sys.allocated, sys.Level))
		}
		if sys.damage < 0 || sys.damage > sys.Level {
			errs = append(errs, fmt.Sprintf("%s damage %d outside [0, %d]", k, sys.damage, sys.Level))
		}
	}
	if s.hull < 0 || s.hull > s.maxHull {
		errs = append(errs, fmt.Sprintf("hull %d outside [0, %d]", s.hull, s.maxHull))
	}
	if l := s.Shields.Layers(); l < 0 || l > s.Shields.MaxLayers() {
		errs = append(errs, fmt.Sprintf("shield layers %d outside [0, %d]", l, s.Shields.MaxLayers()))
	}
	for i, w := range s.Weapons {
		if w.charge < 0 || w.charge > w.ChargeTime {
			errs = append(errs, fmt.Sprintf("weapon %d charge %v outside [0, %v]", i, w.charge, w.ChargeTime))
		}
	}
	for _, r := range s.rooms {
		if r.Fire != nil && (r.Fire.RoomID != r.ID || r.Fire.Remaining <= 0) {
			errs = append(errs, fmt.Sprintf("room %s holds an invalid fire", r.ID))
		}
	}
	for _, c := range s.Crew {
		if c.Health > c.MaxHealth {
			errs = append(errs, fmt.Sprintf("crew %s health %v exceeds max %v", c.Name, c.Health, c.MaxHealth))
		}
	}
	if s.repairErr != nil {
		errs = append(errs, fmt.Sprintf("auto-repair failed: %v", s.repairErr))
	}
	if len(errs) > 0 {
		return fmt.Errorf("ship %q invariants violated: %s", s.Name, strings.Join(errs, "; "))
	}
	return nil
}
