package ship

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/rules"
)

// RoomTemplate describes one compartment of a ship class.
type RoomTemplate struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	Adjacent []string `yaml:"adjacent"`
}

// SubsystemTemplate installs a subsystem and its starting power.
type SubsystemTemplate struct {
	Kind  string `yaml:"kind"`
	Level int    `yaml:"level"`
	Power int    `yaml:"power"`
	Room  string `yaml:"room"`
}

// WeaponTemplate describes one weapon mount.
type WeaponTemplate struct {
	Name         string  `yaml:"name"`
	Power        int     `yaml:"power"`
	ChargeTime   float64 `yaml:"charge_time"`
	Shots        int     `yaml:"shots"`
	Damage       int     `yaml:"damage"`
	Piercing     bool    `yaml:"piercing"`
	FireChance   float64 `yaml:"fire_chance"`
	BreachChance float64 `yaml:"breach_chance"`
}

// CrewTemplate describes one starting crew member.
type CrewTemplate struct {
	Name        string  `yaml:"name"`
	Room        string  `yaml:"room"`
	MaxHealth   float64 `yaml:"max_health"`
	RepairSpeed float64 `yaml:"repair_speed"`
	CombatBonus float64 `yaml:"combat_bonus"`
}

// Template defines a ship class loaded from YAML.
type Template struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Hull    int     `yaml:"hull"`
	Reactor int     `yaml:"reactor"`
	Evasion float64 `yaml:"evasion"`
	// ShieldPowerPerLayer is the shields power funding one layer; 0 means 1.
	ShieldPowerPerLayer int                 `yaml:"shield_power_per_layer"`
	AutoRepair          bool                `yaml:"auto_repair"`
	PilotRoom           string              `yaml:"pilot_room"`
	Scrap               string              `yaml:"scrap"`
	Rooms               []RoomTemplate      `yaml:"rooms"`
	Subsystems          []SubsystemTemplate `yaml:"subsystems"`
	Weapons             []WeaponTemplate    `yaml:"weapons"`
	Crew                []CrewTemplate      `yaml:"crew"`
	Loot                *LootTable          `yaml:"loot"`
}

// Validate checks that the template describes a buildable ship.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff every field is in range and every room
// reference resolves; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("ship template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("ship template %q: name must not be empty", t.ID)
	}
	if t.Hull < 1 {
		return fmt.Errorf("ship template %q: hull must be >= 1", t.ID)
	}
	if t.Reactor < 0 {
		return fmt.Errorf("ship template %q: reactor must be >= 0", t.ID)
	}
	if t.Evasion < 0 || t.Evasion > 100 {
		return fmt.Errorf("ship template %q: evasion must be in [0, 100], got %v", t.ID, t.Evasion)
	}
	if t.ShieldPowerPerLayer < 0 || t.ShieldPowerPerLayer > 2 {
		return fmt.Errorf("ship template %q: shield_power_per_layer must be 1 or 2, got %d", t.ID, t.ShieldPowerPerLayer)
	}

	rooms := make(map[string]bool, len(t.Rooms))
	for _, r := range t.Rooms {
		if r.ID == "" {
			return fmt.Errorf("ship template %q: room id must not be empty", t.ID)
		}
		if rooms[r.ID] {
			return fmt.Errorf("ship template %q: duplicate room %q", t.ID, r.ID)
		}
		rooms[r.ID] = true
	}
	for _, r := range t.Rooms {
		for _, adj := range r.Adjacent {
			if !rooms[adj] {
				return fmt.Errorf("ship template %q: room %q lists unknown neighbour %q", t.ID, r.ID, adj)
			}
		}
	}
	if t.PilotRoom != "" && !rooms[t.PilotRoom] {
		return fmt.Errorf("ship template %q: pilot_room %q is not a room", t.ID, t.PilotRoom)
	}

	kinds := make(map[Kind]bool, len(t.Subsystems))
	housed := make(map[string]Kind, len(t.Subsystems))
	power := 0
	for _, st := range t.Subsystems {
		kind, err := ParseKind(st.Kind)
		if err != nil {
			return fmt.Errorf("ship template %q: %w", t.ID, err)
		}
		if kinds[kind] {
			return fmt.Errorf("ship template %q: duplicate subsystem %q", t.ID, kind)
		}
		kinds[kind] = true
		if st.Level < 0 {
			return fmt.Errorf("ship template %q: %s level must be >= 0", t.ID, kind)
		}
		if st.Power < 0 || st.Power > st.Level {
			return fmt.Errorf("ship template %q: %s power must be in [0, %d], got %d", t.ID, kind, st.Level, st.Power)
		}
		if st.Room != "" {
			if !rooms[st.Room] {
				return fmt.Errorf("ship template %q: %s room %q is not a room", t.ID, kind, st.Room)
			}
			if other, ok := housed[st.Room]; ok {
				return fmt.Errorf("ship template %q: room %q already houses %s", t.ID, st.Room, other)
			}
			housed[st.Room] = kind
		}
		power += st.Power
	}
	if power > t.Reactor {
		return fmt.Errorf("ship template %q: starting power %d exceeds reactor %d", t.ID, power, t.Reactor)
	}

	for i, w := range t.Weapons {
		switch {
		case w.Name == "":
			return fmt.Errorf("ship template %q: weapon[%d] name must not be empty", t.ID, i)
		case w.Power < 0:
			return fmt.Errorf("ship template %q: weapon %q power must be >= 0", t.ID, w.Name)
		case w.ChargeTime <= 0:
			return fmt.Errorf("ship template %q: weapon %q charge_time must be > 0", t.ID, w.Name)
		case w.Shots < 1:
			return fmt.Errorf("ship template %q: weapon %q shots must be >= 1", t.ID, w.Name)
		case w.Damage < 0:
			return fmt.Errorf("ship template %q: weapon %q damage must be >= 0", t.ID, w.Name)
		case w.FireChance < 0 || w.FireChance > 1:
			return fmt.Errorf("ship template %q: weapon %q fire_chance must be in [0, 1]", t.ID, w.Name)
		case w.BreachChance < 0 || w.BreachChance > 1:
			return fmt.Errorf("ship template %q: weapon %q breach_chance must be in [0, 1]", t.ID, w.Name)
		}
	}

	for i, c := range t.Crew {
		switch {
		case c.Name == "":
			return fmt.Errorf("ship template %q: crew[%d] name must not be empty", t.ID, i)
		case !rooms[c.Room]:
			return fmt.Errorf("ship template %q: crew %q room %q is not a room", t.ID, c.Name, c.Room)
		case c.MaxHealth <= 0:
			return fmt.Errorf("ship template %q: crew %q max_health must be > 0", t.ID, c.Name)
		case c.RepairSpeed < 0:
			return fmt.Errorf("ship template %q: crew %q repair_speed must be >= 0", t.ID, c.Name)
		case c.CombatBonus < 0:
			return fmt.Errorf("ship template %q: crew %q combat_bonus must be >= 0", t.ID, c.Name)
		}
	}

	if t.Scrap != "" {
		if _, err := dice.Parse(t.Scrap); err != nil {
			return fmt.Errorf("ship template %q: scrap: %w", t.ID, err)
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("ship template %q: %w", t.ID, err)
		}
	}
	return nil
}

// Build instantiates a ship of this class ready for an engagement: starting
// power allocated, shields full, oxygen full, crew at full health.
//
// Precondition: t must have passed Validate(); r must have passed Validate().
// Postcondition: Returns a ship whose CheckInvariants() is nil, or an error.
func (t *Template) Build(r rules.Rules) (*Ship, error) {
	systems := make(map[Kind]*Subsystem, len(Kinds))
	for _, k := range Kinds {
		systems[k] = NewSubsystem(k, 0, "")
	}
	for _, st := range t.Subsystems {
		kind, err := ParseKind(st.Kind)
		if err != nil {
			return nil, fmt.Errorf("building %q: %w", t.ID, err)
		}
		systems[kind] = NewSubsystem(kind, st.Level, st.Room)
	}

	grid := NewPowerGrid(t.Reactor, systems)
	for _, st := range t.Subsystems {
		kind := Kind(st.Kind)
		for i := 0; i < st.Power; i++ {
			if !grid.Allocate(kind, 1) {
				return nil, fmt.Errorf("building %q: cannot allocate %d power to %s", t.ID, st.Power, kind)
			}
		}
	}

	s := &Ship{
		ID:          uuid.New().String(),
		Name:        t.Name,
		Class:       t.ID,
		BaseEvasion: t.Evasion,
		PilotRoom:   t.PilotRoom,
		AutoRepair:  t.AutoRepair,
		Scrap:       t.Scrap,
		Loot:        t.Loot,
		Shields:     NewShieldLayer(r.ShieldRechargeInterval, t.ShieldPowerPerLayer),
		hull:        t.Hull,
		maxHull:     t.Hull,
		oxygen:      r.OxygenMax,
		grid:        grid,
		systems:     systems,
		roomIndex:   make(map[string]*Room, len(t.Rooms)),
		rules:       r,
	}

	for _, rt := range t.Rooms {
		room := &Room{
			ID:       rt.ID,
			Name:     rt.Name,
			X:        rt.X,
			Y:        rt.Y,
			Adjacent: append([]string(nil), rt.Adjacent...),
		}
		if room.Name == "" {
			room.Name = rt.ID
		}
		s.rooms = append(s.rooms, room)
		s.roomIndex[room.ID] = room
	}
	for _, sys := range systems {
		if sys.RoomID == "" {
			continue
		}
		room, ok := s.roomIndex[sys.RoomID]
		if !ok {
			return nil, fmt.Errorf("building %q: %s room %q is not a room", t.ID, sys.Kind, sys.RoomID)
		}
		room.System = sys.Kind
	}

	for _, wt := range t.Weapons {
		s.Weapons = append(s.Weapons, &Weapon{
			Name:         wt.Name,
			PowerCost:    wt.Power,
			ChargeTime:   wt.ChargeTime,
			Shots:        wt.Shots,
			Damage:       wt.Damage,
			Piercing:     wt.Piercing,
			FireChance:   wt.FireChance,
			BreachChance: wt.BreachChance,
		})
	}

	for _, ct := range t.Crew {
		room, ok := s.roomIndex[ct.Room]
		if !ok {
			return nil, fmt.Errorf("building %q: crew %q room %q is not a room", t.ID, ct.Name, ct.Room)
		}
		speed := ct.RepairSpeed
		if speed == 0 {
			speed = 1
		}
		s.Crew = append(s.Crew, &CrewAgent{
			ID:          uuid.New().String(),
			Name:        ct.Name,
			Health:      ct.MaxHealth,
			MaxHealth:   ct.MaxHealth,
			Room:        room.ID,
			X:           room.X,
			Y:           room.Y,
			RepairSpeed: speed,
			CombatBonus: ct.CombatBonus,
		})
	}

	s.RaiseShields()
	return s, nil
}

// LoadTemplateFromBytes parses a single ship template from raw YAML bytes.
// Unknown fields are rejected.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing ship template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// keyed by id.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse, validate
// or duplicate-id failure; on error, the partial result is discarded.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ship dir %q: %w", dir, err)
	}

	templates := make(map[string]*Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate ship template id %q", path, tmpl.ID)
		}
		templates[tmpl.ID] = tmpl
	}
	return templates, nil
}
