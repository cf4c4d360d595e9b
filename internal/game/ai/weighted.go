// Package ai provides firing policies for computer-controlled ships: a
// weighted reference policy, a Lua-scripted policy and a registry by name.
package ai

import (
	"github.com/cory-johannsen/shipsim/internal/game/combat"
	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// DefaultWeights favours disabling the opponent's guns, then its engines,
// then its shields.
var DefaultWeights = map[ship.Kind]int{
	ship.Weapons:     4,
	ship.Engines:     3,
	ship.Shields:     2,
	ship.Medbay:      1,
	ship.LifeSupport: 1,
}

// WeightedPolicy fires every funded weapon once it has been ready for
// FireDelay seconds, aiming at a room chosen at random with probability
// proportional to the weight of the subsystem it houses.
type WeightedPolicy struct {
	src       dice.Source
	fireDelay float64
	weights   map[ship.Kind]int
}

// NewWeightedPolicy returns a WeightedPolicy using DefaultWeights.
//
// Precondition: src must be non-nil; fireDelay >= 0.
func NewWeightedPolicy(src dice.Source, fireDelay float64) *WeightedPolicy {
	if src == nil {
		panic("ai.NewWeightedPolicy: src must not be nil")
	}
	return &WeightedPolicy{src: src, fireDelay: fireDelay, weights: DefaultWeights}
}

// Decide implements combat.FiringPolicy.
//
// Postcondition: every returned order names a funded weapon that has been
// ready for at least the fire delay.
func (p *WeightedPolicy) Decide(self, opponent *ship.Ship) []combat.FireOrder {
	var orders []combat.FireOrder
	for i, w := range self.Weapons {
		if !self.WeaponFunded(i) || !w.Ready() || w.ReadyFor() < p.fireDelay {
			continue
		}
		orders = append(orders, combat.FireOrder{Weapon: i, Room: p.pickRoom(opponent)})
	}
	return orders
}

// pickRoom prefers rooms whose subsystem is still online, falls back to any
// room housing a subsystem, and aims at the hull when the target has neither.
func (p *WeightedPolicy) pickRoom(target *ship.Ship) string {
	var online, housed []*ship.Room
	for _, r := range target.Rooms() {
		if r.System == "" {
			continue
		}
		housed = append(housed, r)
		if !target.System(r.System).Disabled() {
			online = append(online, r)
		}
	}
	candidates := online
	if len(candidates) == 0 {
		candidates = housed
	}
	if len(candidates) == 0 {
		return ""
	}

	total := 0
	for _, r := range candidates {
		total += p.weight(r.System)
	}
	roll := p.src.Intn(total)
	for _, r := range candidates {
		roll -= p.weight(r.System)
		if roll < 0 {
			return r.ID
		}
	}
	return candidates[len(candidates)-1].ID
}

func (p *WeightedPolicy) weight(kind ship.Kind) int {
	if w := p.weights[kind]; w > 0 {
		return w
	}
	return 1
}

// IdlePolicy never fires.
type IdlePolicy struct{}

// Decide implements combat.FiringPolicy.
func (IdlePolicy) Decide(_, _ *ship.Ship) []combat.FireOrder { return nil }
