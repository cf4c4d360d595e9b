package combat

import (
	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// ShotResult holds the outcome of a single shot.
type ShotResult struct {
	// Outcome is the last pipeline stage the shot reached.
	Outcome ShotOutcome
	// EvasionRoll is the raw [0, 100) draw compared against target evasion.
	EvasionRoll int
	// HullDamage is the hull actually removed.
	HullDamage int
	// SystemDamaged is true when the targeted room's subsystem took damage.
	SystemDamaged bool
	// FireStarted is true when the shot set the targeted room alight.
	FireStarted bool
	// Breached is true when the shot opened the targeted room to space.
	Breached bool
	// Delay is the presentation-only offset of this shot within its volley.
	Delay float64
	// Events is the telemetry the shot produced.
	Events []ship.Event
}

// ResolveShot runs one shot of weapon w against roomID of target. An empty
// roomID aims at the hull alone.
//
// Stages, in order: evasion, piercing bypass, shields, hull, subsystem, then
// independent fire and breach rolls.
//
// Precondition: w, target and src must be non-nil; roomID is empty or a room of target.
// Postcondition: exactly one evasion draw is made; fire and breach draws are made
// only for shots that damage a room.
func ResolveShot(w *ship.Weapon, target *ship.Ship, roomID string, src dice.Source) ShotResult {
	res := ShotResult{EvasionRoll: dice.Percent(src)}
	if float64(res.EvasionRoll) < target.Evasion() {
		res.Outcome = Miss
		return res
	}

	if !w.Piercing && target.Shields.Layers() > 0 && !target.System(ship.Shields).Disabled() {
		target.Shields.Absorb()
		res.Outcome = ShieldHit
		return res
	}

	res.Outcome = HullDamage
	before := target.Hull()
	res.Events = append(res.Events, target.DamageHull(w.Damage)...)
	res.HullDamage = before - target.Hull()

	if roomID == "" {
		return res
	}
	if room, ok := target.Room(roomID); ok && room.System != "" {
		res.SystemDamaged = true
		res.Events = append(res.Events, target.DamageRoomSystem(roomID, 1)...)
	}
	if dice.Chance(src, w.FireChance) {
		evs := target.Ignite(roomID)
		res.FireStarted = len(evs) > 0
		res.Events = append(res.Events, evs...)
	}
	if dice.Chance(src, w.BreachChance) {
		evs := target.Breach(roomID)
		res.Breached = len(evs) > 0
		res.Events = append(res.Events, evs...)
	}
	return res
}
