// Package ship models a combat spacecraft: its power grid, subsystems,
// weapons, shields, rooms, fires and crew, and advances them under a tick.
package ship

import "fmt"

// Kind identifies a powered subsystem.
type Kind string

const (
	Shields     Kind = "shields"
	Weapons     Kind = "weapons"
	Engines     Kind = "engines"
	LifeSupport Kind = "life_support"
	Medbay      Kind = "medbay"
)

// Kinds lists every subsystem kind in a stable order.
var Kinds = []Kind{Shields, Weapons, Engines, LifeSupport, Medbay}

// ParseKind converts s to a Kind.
//
// Postcondition: Returns an error if s names no known subsystem.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown subsystem kind %q", s)
}

// Subsystem is a powered ship component.
//
// Invariant: 0 <= allocated <= Level; 0 <= damage <= Level.
type Subsystem struct {
	Kind  Kind
	Level int
	// RoomID is the room housing this subsystem; empty when it has none.
	RoomID string

	allocated int
	damage    int
}

// NewSubsystem returns an unpowered, undamaged subsystem.
func NewSubsystem(kind Kind, level int, roomID string) *Subsystem {
	return &Subsystem{Kind: kind, Level: level, RoomID: roomID}
}

// Allocated returns the power currently routed to the subsystem.
func (s *Subsystem) Allocated() int { return s.allocated }

// Damage returns accumulated damage.
func (s *Subsystem) Damage() int { return s.damage }

// Damaged reports whether any damage is present.
func (s *Subsystem) Damaged() bool { return s.damage > 0 }

// EffectivePower is max(0, allocated-damage); it drives all subsystem behavior.
func (s *Subsystem) EffectivePower() int {
	if p := s.allocated - s.damage; p > 0 {
		return p
	}
	return 0
}

// Disabled reports whether the subsystem has no effective power.
func (s *Subsystem) Disabled() bool { return s.EffectivePower() == 0 }

// ApplyDamage adds amount damage, saturating at Level.
//
// Postcondition: Returns true iff this call took effective power from > 0 to 0.
func (s *Subsystem) ApplyDamage(amount int) bool {
	if amount <= 0 {
		return false
	}
	before := s.EffectivePower()
	s.damage += amount
	if s.damage > s.Level {
		s.damage = s.Level
	}
	return before > 0 && s.EffectivePower() == 0
}

// Repair removes up to amount damage.
//
// Postcondition: damage >= 0; returns the damage actually removed.
func (s *Subsystem) Repair(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > s.damage {
		amount = s.damage
	}
	s.damage -= amount
	return amount
}
