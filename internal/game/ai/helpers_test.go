package ai_test

import (
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/shipsim/internal/game/combat"
	"github.com/cory-johannsen/shipsim/internal/game/rules"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// fixedSrc returns val for every draw.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(_ int) int { return f.val }

// recordingPolicy counts calls and returns a fixed order list.
type recordingPolicy struct {
	calls  int
	orders []combat.FireOrder
}

func (p *recordingPolicy) Decide(_, _ *ship.Ship) []combat.FireOrder {
	p.calls++
	return p.orders
}

func raider(t require.TestingT) *ship.Ship {
	tmpl := &ship.Template{
		ID:      "raider",
		Name:    "Raider",
		Hull:    12,
		Reactor: 3,
		Rooms:   []ship.RoomTemplate{{ID: "guns"}},
		Subsystems: []ship.SubsystemTemplate{
			{Kind: "weapons", Level: 2, Power: 2, Room: "guns"},
		},
		Weapons: []ship.WeaponTemplate{
			{Name: "Laser", Power: 1, ChargeTime: 5, Shots: 1, Damage: 1},
			{Name: "Missile", Power: 1, ChargeTime: 5, Shots: 1, Damage: 3, Piercing: true},
		},
	}
	s, err := tmpl.Build(rules.Default())
	require.NoError(t, err)
	return s
}

func cruiser(t require.TestingT) *ship.Ship {
	tmpl := &ship.Template{
		ID:      "cruiser",
		Name:    "Cruiser",
		Hull:    30,
		Reactor: 6,
		Rooms: []ship.RoomTemplate{
			{ID: "helm"},
			{ID: "shield_room"},
			{ID: "engine_room"},
		},
		Subsystems: []ship.SubsystemTemplate{
			{Kind: "shields", Level: 2, Power: 2, Room: "shield_room"},
			{Kind: "engines", Level: 1, Power: 1, Room: "engine_room"},
		},
	}
	s, err := tmpl.Build(rules.Default())
	require.NoError(t, err)
	return s
}
