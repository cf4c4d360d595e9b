package combat_test

import (
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/shipsim/internal/game/rules"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// fixedSrc returns val for every draw.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(_ int) int { return f.val }

// gunship has no shields and two 15-damage single-shot weapons.
func gunship() *ship.Template {
	return &ship.Template{
		ID:      "gunship",
		Name:    "Ship A",
		Hull:    30,
		Reactor: 4,
		Rooms:   []ship.RoomTemplate{{ID: "guns"}, {ID: "helm", X: 2}},
		Subsystems: []ship.SubsystemTemplate{
			{Kind: "weapons", Level: 2, Power: 2, Room: "guns"},
		},
		Weapons: []ship.WeaponTemplate{
			{Name: "Heavy Laser", Power: 1, ChargeTime: 10, Shots: 1, Damage: 15},
			{Name: "Heavy Laser II", Power: 1, ChargeTime: 10, Shots: 1, Damage: 15},
		},
		Crew: []ship.CrewTemplate{{Name: "Gunner", Room: "guns", MaxHealth: 100}},
	}
}

// target has one shield layer, no pilot and therefore no evasion.
func target() *ship.Template {
	return &ship.Template{
		ID:                  "target",
		Name:                "Ship B",
		Hull:                20,
		Reactor:             4,
		ShieldPowerPerLayer: 1,
		PilotRoom:           "helm",
		Scrap:               "10",
		Rooms: []ship.RoomTemplate{
			{ID: "helm", Adjacent: []string{"shields"}},
			{ID: "shields", X: 2, Adjacent: []string{"helm", "engines"}},
			{ID: "engines", X: 4, Adjacent: []string{"shields"}},
		},
		Subsystems: []ship.SubsystemTemplate{
			{Kind: "shields", Level: 1, Power: 1, Room: "shields"},
			{Kind: "engines", Level: 2, Power: 2, Room: "engines"},
		},
		Loot: &ship.LootTable{Items: []ship.ItemDrop{{ItemID: "fuel", Chance: 1, MinQty: 2, MaxQty: 2}}},
	}
}

// slowShields keeps a spent shield layer down for the length of a test.
func slowShields() rules.Rules {
	r := rules.Default()
	r.ShieldRechargeInterval = 1000
	return r
}

func build(t require.TestingT, tmpl *ship.Template, r rules.Rules) *ship.Ship {
	require.NoError(t, tmpl.Validate())
	s, err := tmpl.Build(r)
	require.NoError(t, err)
	return s
}
