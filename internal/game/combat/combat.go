// Package combat runs a real-time engagement between two ships: the damage
// resolution pipeline, the controller state machine and its command surface.
package combat

import (
	"errors"

	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// Side identifies one of the two ships in an engagement.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

// String returns a stable label for the side.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// State is the engagement state machine.
type State int

const (
	Active State = iota
	PlayerVictory
	PlayerDefeat
)

// String returns a stable label for the state.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case PlayerVictory:
		return "player_victory"
	case PlayerDefeat:
		return "player_defeat"
	default:
		return "unknown"
	}
}

// ShotOutcome is the terminal stage a shot reached in the damage pipeline.
type ShotOutcome int

const (
	Miss ShotOutcome = iota
	ShieldHit
	HullDamage
)

// String returns a stable label for the outcome.
func (o ShotOutcome) String() string {
	switch o {
	case Miss:
		return "miss"
	case ShieldHit:
		return "shield_hit"
	case HullDamage:
		return "hull_damage"
	default:
		return "unknown"
	}
}

// Command rejections. State is unchanged when one is returned.
var (
	ErrEngagementOver  = errors.New("engagement is over")
	ErrInvalidWeapon   = errors.New("no weapon at that index")
	ErrWeaponUnpowered = errors.New("weapon is not powered")
	ErrWeaponNotReady  = errors.New("weapon is not charged")
	ErrInvalidTarget   = errors.New("invalid target")
	ErrPowerRejected   = errors.New("power allocation rejected")
	ErrUnknownSide     = errors.New("unknown side")

	ErrUnknownCrew       = ship.ErrUnknownCrew
	ErrUnknownRoom       = ship.ErrUnknownRoom
	ErrCrewIncapacitated = ship.ErrCrewIncapacitated
	ErrCrewMoving        = ship.ErrCrewMoving
	ErrRepairCooldown    = ship.ErrRepairCooldown
	ErrNothingToRepair   = ship.ErrNothingToRepair
)
