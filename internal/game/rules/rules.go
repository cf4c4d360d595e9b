// Package rules holds the tunable constants of the ship combat simulation.
//
// Every rate is expressed per second so the simulation is independent of the
// tick size. Probabilities are per-second Bernoulli rates in [0, 1].
package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Weapon funding modes.
const (
	// FundingSlots funds the first floor(effectivePower) weapons.
	FundingSlots = "slots"
	// FundingCost funds weapons in order while their cumulative power cost fits.
	FundingCost = "cost"
)

// Rules is the full set of simulation constants.
type Rules struct {
	// ShieldRechargeInterval is the seconds needed to restore one shield layer.
	ShieldRechargeInterval float64 `mapstructure:"shield_recharge_interval"`
	// EnginesEvasionFactor is the evasion added per point of engines effective power.
	EnginesEvasionFactor float64 `mapstructure:"engines_evasion_factor"`
	// DamagedEnginesEvasionScale multiplies evasion while engines are damaged but still powered.
	DamagedEnginesEvasionScale float64 `mapstructure:"damaged_engines_evasion_scale"`

	// FireDuration is the burn time of a newly started fire, in seconds.
	FireDuration float64 `mapstructure:"fire_duration"`
	// FirefightRate is the extra seconds of fire removed per occupant per second.
	FirefightRate float64 `mapstructure:"firefight_rate"`
	// FireSystemDamageChance is the per-second chance a fire damages its room's subsystem.
	FireSystemDamageChance float64 `mapstructure:"fire_system_damage_chance"`
	// FireHullDamageChance is the per-second chance a fire burns 1 hull.
	FireHullDamageChance float64 `mapstructure:"fire_hull_damage_chance"`
	// FireSpreadChance is the per-second chance a fire spreads to another room.
	FireSpreadChance float64 `mapstructure:"fire_spread_chance"`
	// FireCrewDamage is the health per second lost by crew standing in a burning room.
	FireCrewDamage float64 `mapstructure:"fire_crew_damage"`

	// CrewSpeed is the crew walking speed in layout units per second.
	CrewSpeed float64 `mapstructure:"crew_speed"`
	// RepairAmount is the subsystem damage removed by one repair action.
	RepairAmount int `mapstructure:"repair_amount"`
	// RepairCooldown is the seconds between two repair actions of one crew agent
	// at repair speed 1.
	RepairCooldown float64 `mapstructure:"repair_cooldown"`
	// HealRatePerPower is the health per second restored per medbay power point.
	HealRatePerPower float64 `mapstructure:"heal_rate_per_power"`

	// OxygenMax is the full oxygen level of a ship.
	OxygenMax float64 `mapstructure:"oxygen_max"`
	// OxygenRegenPerPower is the oxygen per second produced per life support power point.
	OxygenRegenPerPower float64 `mapstructure:"oxygen_regen_per_power"`
	// OxygenDecayRate is the oxygen per second lost while life support is offline.
	OxygenDecayRate float64 `mapstructure:"oxygen_decay_rate"`
	// BreachLeakRate is the oxygen per second lost through each hull breach.
	BreachLeakRate float64 `mapstructure:"breach_leak_rate"`
	// SuffocationThreshold is the oxygen level below which crew take damage.
	SuffocationThreshold float64 `mapstructure:"suffocation_threshold"`
	// SuffocationDamage is the health per second lost by crew while suffocating.
	SuffocationDamage float64 `mapstructure:"suffocation_damage"`

	// ShotStagger is the presentation-only delay between shots of one volley.
	ShotStagger float64 `mapstructure:"shot_stagger"`
	// WeaponFunding selects how weapons power funds charging: "slots" or "cost".
	WeaponFunding string `mapstructure:"weapon_funding"`
}

// Default returns the reference tuning.
//
// Postcondition: Default().Validate() == nil.
func Default() Rules {
	return Rules{
		ShieldRechargeInterval:     2.0,
		EnginesEvasionFactor:       5.0,
		DamagedEnginesEvasionScale: 0.5,

		FireDuration:           12.0,
		FirefightRate:          1.0,
		FireSystemDamageChance: 0.1,
		FireHullDamageChance:   0.05,
		FireSpreadChance:       0.04,
		FireCrewDamage:         5.0,

		CrewSpeed:        2.0,
		RepairAmount:     1,
		RepairCooldown:   2.0,
		HealRatePerPower: 2.0,

		OxygenMax:            100,
		OxygenRegenPerPower:  2.0,
		OxygenDecayRate:      1.0,
		BreachLeakRate:       3.0,
		SuffocationThreshold: 10,
		SuffocationDamage:    2.5,

		ShotStagger:   0.15,
		WeaponFunding: FundingSlots,
	}
}

// Validate checks every constant's range.
//
// Postcondition: Returns nil if all constants are usable, or an error listing every violation.
func (r Rules) Validate() error {
	var errs []string
	positive := map[string]float64{
		"shield_recharge_interval": r.ShieldRechargeInterval,
		"fire_duration":            r.FireDuration,
		"crew_speed":               r.CrewSpeed,
		"oxygen_max":               r.OxygenMax,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("rules.%s must be > 0, got %v", name, v))
		}
	}
	nonNegative := map[string]float64{
		"engines_evasion_factor": r.EnginesEvasionFactor,
		"firefight_rate":         r.FirefightRate,
		"fire_crew_damage":       r.FireCrewDamage,
		"repair_cooldown":        r.RepairCooldown,
		"heal_rate_per_power":    r.HealRatePerPower,
		"oxygen_regen_per_power": r.OxygenRegenPerPower,
		"oxygen_decay_rate":      r.OxygenDecayRate,
		"breach_leak_rate":       r.BreachLeakRate,
		"suffocation_threshold":  r.SuffocationThreshold,
		"suffocation_damage":     r.SuffocationDamage,
		"shot_stagger":           r.ShotStagger,
	}
	for name, v := range nonNegative {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("rules.%s must be >= 0, got %v", name, v))
		}
	}
	probabilities := map[string]float64{
		"damaged_engines_evasion_scale": r.DamagedEnginesEvasionScale,
		"fire_system_damage_chance":     r.FireSystemDamageChance,
		"fire_hull_damage_chance":       r.FireHullDamageChance,
		"fire_spread_chance":            r.FireSpreadChance,
	}
	for name, v := range probabilities {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("rules.%s must be in [0, 1], got %v", name, v))
		}
	}
	if r.RepairAmount < 1 {
		errs = append(errs, fmt.Sprintf("rules.repair_amount must be >= 1, got %d", r.RepairAmount))
	}
	if r.SuffocationThreshold > r.OxygenMax {
		errs = append(errs, "rules.suffocation_threshold must not exceed rules.oxygen_max")
	}
	if r.WeaponFunding != FundingSlots && r.WeaponFunding != FundingCost {
		errs = append(errs, fmt.Sprintf("rules.weapon_funding must be one of [slots, cost], got %q", r.WeaponFunding))
	}
	if len(errs) > 0 {
		// map iteration order is random; keep messages stable
		sort.Strings(errs)
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
