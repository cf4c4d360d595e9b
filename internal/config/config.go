// Package config provides Viper-based configuration loading for the ship
// combat simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/shipsim/internal/game/rules"
)

// Firing policy names understood by the simulator.
const (
	PolicyWeighted = "weighted"
	PolicyScripted = "scripted"
	PolicyIdle     = "idle"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a zap sink: "stdout", "stderr" or a file path.
	Output string `mapstructure:"output"`
}

// SimulationConfig holds engagement driver settings.
type SimulationConfig struct {
	// TickInterval is the wall-clock period between ticks.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// TimeScale multiplies wall-clock time into simulated seconds.
	TimeScale float64 `mapstructure:"time_scale"`
	// Seed seeds the random source; 0 uses a cryptographic source.
	Seed uint64 `mapstructure:"seed"`
	// StrictInvariants panics on any invariant violation instead of logging it.
	StrictInvariants bool `mapstructure:"strict_invariants"`
	// ShipsDir is the directory of ship class templates.
	ShipsDir string `mapstructure:"ships_dir"`
	// PlayerShip is the template id of the player's ship.
	PlayerShip string `mapstructure:"player_ship"`
	// EnemyShip is the template id of the enemy ship.
	EnemyShip string `mapstructure:"enemy_ship"`
	// MaxDuration ends an engagement after this much simulated time; 0 disables the cap.
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// AIConfig holds firing policy settings.
type AIConfig struct {
	// PlayerPolicy names the policy that fires the player's weapons.
	PlayerPolicy string `mapstructure:"player_policy"`
	// EnemyPolicy names the policy that fires the enemy's weapons.
	EnemyPolicy string `mapstructure:"enemy_policy"`
	// ScriptDir holds the Lua scripts of the scripted policy.
	ScriptDir string `mapstructure:"script_dir"`
	// SharedScriptDir holds the global Lua scripts, used by any script key
	// without its own set (engagement hooks, and targeting when ScriptDir is empty).
	SharedScriptDir string `mapstructure:"shared_script_dir"`
	// InstructionLimit caps Lua opcodes per policy call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// FireDelay is the seconds a weapon sits ready before the weighted policy fires it.
	FireDelay float64 `mapstructure:"fire_delay"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	AI         AIConfig         `mapstructure:"ai"`
	Rules      rules.Rules      `mapstructure:"rules"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("logging.output must not be empty")
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.TimeScale <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.time_scale must be > 0, got %v", s.TimeScale))
	}
	if s.ShipsDir == "" {
		errs = append(errs, "simulation.ships_dir must not be empty")
	}
	if s.PlayerShip == "" {
		errs = append(errs, "simulation.player_ship must not be empty")
	}
	if s.EnemyShip == "" {
		errs = append(errs, "simulation.enemy_ship must not be empty")
	}
	if s.MaxDuration < 0 {
		errs = append(errs, "simulation.max_duration must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	validPolicies := map[string]bool{PolicyWeighted: true, PolicyScripted: true, PolicyIdle: true}
	if !validPolicies[a.PlayerPolicy] {
		errs = append(errs, fmt.Sprintf("ai.player_policy must be one of [weighted, scripted, idle], got %q", a.PlayerPolicy))
	}
	if !validPolicies[a.EnemyPolicy] {
		errs = append(errs, fmt.Sprintf("ai.enemy_policy must be one of [weighted, scripted, idle], got %q", a.EnemyPolicy))
	}
	if (a.PlayerPolicy == PolicyScripted || a.EnemyPolicy == PolicyScripted) && a.ScriptDir == "" && a.SharedScriptDir == "" {
		errs = append(errs, "ai.script_dir or ai.shared_script_dir must be set when a scripted policy is selected")
	}
	if a.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("ai.instruction_limit must be >= 0, got %d", a.InstructionLimit))
	}
	if a.FireDelay < 0 {
		errs = append(errs, fmt.Sprintf("ai.fire_delay must be >= 0, got %v", a.FireDelay))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SHIPSIM_ prefix
	v.SetEnvPrefix("SHIPSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding every default value.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("simulation.tick_interval", "50ms")
	v.SetDefault("simulation.time_scale", 1.0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.strict_invariants", false)
	v.SetDefault("simulation.ships_dir", "content/ships")
	v.SetDefault("simulation.player_ship", "kestrel")
	v.SetDefault("simulation.enemy_ship", "rebel_fighter")
	v.SetDefault("simulation.max_duration", "10m")

	v.SetDefault("ai.player_policy", PolicyWeighted)
	v.SetDefault("ai.enemy_policy", PolicyWeighted)
	v.SetDefault("ai.script_dir", "")
	v.SetDefault("ai.shared_script_dir", "")
	v.SetDefault("ai.instruction_limit", 0)
	v.SetDefault("ai.fire_delay", 0.5)

	r := rules.Default()
	v.SetDefault("rules.shield_recharge_interval", r.ShieldRechargeInterval)
	v.SetDefault("rules.engines_evasion_factor", r.EnginesEvasionFactor)
	v.SetDefault("rules.damaged_engines_evasion_scale", r.DamagedEnginesEvasionScale)
	v.SetDefault("rules.fire_duration", r.FireDuration)
	v.SetDefault("rules.firefight_rate", r.FirefightRate)
	v.SetDefault("rules.fire_system_damage_chance", r.FireSystemDamageChance)
	v.SetDefault("rules.fire_hull_damage_chance", r.FireHullDamageChance)
	v.SetDefault("rules.fire_spread_chance", r.FireSpreadChance)
	v.SetDefault("rules.fire_crew_damage", r.FireCrewDamage)
	v.SetDefault("rules.crew_speed", r.CrewSpeed)
	v.SetDefault("rules.repair_amount", r.RepairAmount)
	v.SetDefault("rules.repair_cooldown", r.RepairCooldown)
	v.SetDefault("rules.heal_rate_per_power", r.HealRatePerPower)
	v.SetDefault("rules.oxygen_max", r.OxygenMax)
	v.SetDefault("rules.oxygen_regen_per_power", r.OxygenRegenPerPower)
	v.SetDefault("rules.oxygen_decay_rate", r.OxygenDecayRate)
	v.SetDefault("rules.breach_leak_rate", r.BreachLeakRate)
	v.SetDefault("rules.suffocation_threshold", r.SuffocationThreshold)
	v.SetDefault("rules.suffocation_damage", r.SuffocationDamage)
	v.SetDefault("rules.shot_stagger", r.ShotStagger)
	v.SetDefault("rules.weapon_funding", r.WeaponFunding)
}
