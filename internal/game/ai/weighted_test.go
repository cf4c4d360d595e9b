package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/shipsim/internal/game/ai"
	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

func TestWeightedPolicy_WaitsForFireDelay(t *testing.T) {
	self, target := raider(t), cruiser(t)
	p := ai.NewWeightedPolicy(fixedSrc{val: 0}, 1)

	assert.Empty(t, p.Decide(self, target), "not charged")
	self.Tick(5, fixedSrc{val: 0})
	require.True(t, self.Weapons[0].Ready())
	assert.Empty(t, p.Decide(self, target), "ready but within the delay")

	self.Tick(1, fixedSrc{val: 0})
	orders := p.Decide(self, target)
	require.Len(t, orders, 2)
	assert.Equal(t, 0, orders[0].Weapon)
	assert.Equal(t, 1, orders[1].Weapon)
}

func TestWeightedPolicy_SkipsUnfundedWeapons(t *testing.T) {
	self, target := raider(t), cruiser(t)
	p := ai.NewWeightedPolicy(fixedSrc{val: 0}, 0)
	self.Tick(5, fixedSrc{val: 0})
	require.True(t, self.AllocatePower(ship.Weapons, -1))
	orders := p.Decide(self, target)
	require.Len(t, orders, 1)
	assert.Equal(t, 0, orders[0].Weapon)
}

func TestWeightedPolicy_RoomSelection(t *testing.T) {
	self, target := raider(t), cruiser(t)
	self.Tick(5, fixedSrc{val: 0})

	orders := ai.NewWeightedPolicy(fixedSrc{val: 0}, 0).Decide(self, target)
	assert.Equal(t, "shield_room", orders[0].Room, "shields weigh 2 of 5")
	orders = ai.NewWeightedPolicy(fixedSrc{val: 2}, 0).Decide(self, target)
	assert.Equal(t, "engine_room", orders[0].Room)

	target.DamageRoomSystem("shield_room", 2)
	orders = ai.NewWeightedPolicy(fixedSrc{val: 0}, 0).Decide(self, target)
	assert.Equal(t, "engine_room", orders[0].Room, "offline shields are skipped")

	target.DamageRoomSystem("engine_room", 1)
	orders = ai.NewWeightedPolicy(fixedSrc{val: 0}, 0).Decide(self, target)
	assert.Equal(t, "shield_room", orders[0].Room, "falls back to any housed room")

	orders = ai.NewWeightedPolicy(fixedSrc{val: 0}, 0).Decide(target, self)
	assert.Empty(t, orders, "cruiser has no weapons")
}

func TestDefaultWeights_Order(t *testing.T) {
	w := ai.DefaultWeights
	assert.Greater(t, w[ship.Weapons], w[ship.Engines])
	assert.Greater(t, w[ship.Engines], w[ship.Shields])
	assert.Greater(t, w[ship.Shields], w[ship.Medbay])
}

func TestWeightedPolicy_PrefersEnginesOverShields(t *testing.T) {
	self, target := raider(t), cruiser(t)
	self.Tick(5, fixedSrc{val: 0})

	// every possible roll over the 5 weight points of shields + engines
	counts := map[string]int{}
	for roll := 0; roll < 5; roll++ {
		orders := ai.NewWeightedPolicy(fixedSrc{val: roll}, 0).Decide(self, target)
		require.NotEmpty(t, orders)
		counts[orders[0].Room]++
	}
	assert.Equal(t, 3, counts["engine_room"])
	assert.Equal(t, 2, counts["shield_room"])
}

func TestWeightedPolicy_HullOnlyWithoutSystems(t *testing.T) {
	self := raider(t)
	tmpl := &ship.Template{ID: "hulk", Name: "Hulk", Hull: 5}
	hulk, err := tmpl.Build(self.Rules())
	require.NoError(t, err)
	self.Tick(5, fixedSrc{val: 0})
	orders := ai.NewWeightedPolicy(fixedSrc{val: 0}, 0).Decide(self, hulk)
	require.Len(t, orders, 2)
	assert.Equal(t, "", orders[0].Room)
}

func TestProperty_WeightedPolicy_TargetsExistingRooms(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self, target := raider(rt), cruiser(rt)
		self.Tick(5, fixedSrc{val: 0})
		if rapid.Bool().Draw(rt, "damage_shields") {
			target.DamageRoomSystem("shield_room", 2)
		}
		p := ai.NewWeightedPolicy(dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), 0)
		for _, o := range p.Decide(self, target) {
			room, ok := target.Room(o.Room)
			require.True(rt, ok)
			assert.NotEmpty(rt, room.System)
		}
	})
}

func TestIdlePolicy_NeverFires(t *testing.T) {
	self, target := raider(t), cruiser(t)
	self.Tick(5, fixedSrc{val: 0})
	assert.Empty(t, ai.IdlePolicy{}.Decide(self, target))
}
