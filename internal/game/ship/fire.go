package ship

import (
	"math"

	"github.com/cory-johannsen/shipsim/internal/game/dice"
)

// fireEpsilon absorbs float drift when summing many small steps.
const fireEpsilon = 1e-6

// Fire is a per-room hazard.
//
// Invariant: Remaining > 0 while the fire is attached to a room.
type Fire struct {
	RoomID    string
	Remaining float64
}

// perTick converts a per-second probability into the probability for a step of dt seconds.
func perTick(perSecond, dt float64) float64 {
	if perSecond <= 0 || dt <= 0 {
		return 0
	}
	if perSecond >= 1 {
		return 1
	}
	return 1 - math.Pow(1-perSecond, dt)
}

func (s *Ship) tickFires(dt float64, src dice.Source) []Event {
	var events []Event
	for _, f := range s.Fires() {
		room := s.roomIndex[f.RoomID]
		for _, c := range s.Crew {
			if c.Room == room.ID && !c.Moving() && c.hurt(s.rules.FireCrewDamage*dt) {
				events = append(events, Event{Kind: EventCrewIncapacitated, ShipID: s.ID, RoomID: room.ID, CrewID: c.ID})
			}
		}

		fighters := float64(len(s.Occupants(room.ID)))
		f.Remaining -= dt + dt*fighters*s.rules.FirefightRate
		if f.Remaining <= fireEpsilon {
			room.Fire = nil
			continue
		}

		if dice.Chance(src, perTick(s.rules.FireSystemDamageChance, dt)) {
			events = append(events, s.DamageRoomSystem(room.ID, 1)...)
		}
		if dice.Chance(src, perTick(s.rules.FireHullDamageChance, dt)) {
			events = append(events, s.DamageHull(1)...)
		}
		if dice.Chance(src, perTick(s.rules.FireSpreadChance, dt)) {
			if target := s.spreadTarget(room, src); target != nil {
				events = append(events, s.Ignite(target.ID)...)
			}
		}
	}
	return events
}

// spreadTarget picks a fire-free neighbour of from, or any fire-free room when
// from lists no neighbours.
func (s *Ship) spreadTarget(from *Room, src dice.Source) *Room {
	var candidates []*Room
	if len(from.Adjacent) > 0 {
		for _, id := range from.Adjacent {
			if r, ok := s.roomIndex[id]; ok && r.ID != from.ID && !r.Burning() {
				candidates = append(candidates, r)
			}
		}
	} else {
		for _, r := range s.rooms {
			if r.ID != from.ID && !r.Burning() {
				candidates = append(candidates, r)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[src.Intn(len(candidates))]
}
