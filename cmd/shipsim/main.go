// Package main runs a headless ship-to-ship engagement. It wires together
// configuration, ship templates, firing policies and the real-time tick driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipsim/internal/config"
	"github.com/cory-johannsen/shipsim/internal/game/ai"
	"github.com/cory-johannsen/shipsim/internal/game/clock"
	"github.com/cory-johannsen/shipsim/internal/game/combat"
	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
	"github.com/cory-johannsen/shipsim/internal/observability"
	"github.com/cory-johannsen/shipsim/internal/scripting"
	"github.com/cory-johannsen/shipsim/internal/server"
)

const scriptKey = "ai"

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	playerShip := flag.String("player", "", "player ship template id (overrides simulation.player_ship)")
	enemyShip := flag.String("enemy", "", "enemy ship template id (overrides simulation.enemy_ship)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *playerShip != "" {
		cfg.Simulation.PlayerShip = *playerShip
	}
	if *enemyShip != "" {
		cfg.Simulation.EnemyShip = *enemyShip
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging, observability.RunInfo{
		Binary:     "shipsim",
		Seed:       cfg.Simulation.Seed,
		PlayerShip: cfg.Simulation.PlayerShip,
		EnemyShip:  cfg.Simulation.EnemyShip,
	})
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load ship templates
	templates, err := ship.LoadTemplates(cfg.Simulation.ShipsDir)
	if err != nil {
		logger.Fatal("loading ship templates", zap.Error(err))
	}
	player, err := buildShip(templates, cfg.Simulation.PlayerShip, cfg)
	if err != nil {
		logger.Fatal("building player ship", zap.Error(err))
	}
	enemy, err := buildShip(templates, cfg.Simulation.EnemyShip, cfg)
	if err != nil {
		logger.Fatal("building enemy ship", zap.Error(err))
	}
	logger.Info("ships loaded",
		zap.Int("templates", len(templates)),
		zap.String("player", player.Name),
		zap.String("enemy", enemy.Name),
	)

	// Random source
	var base dice.Source
	if cfg.Simulation.Seed != 0 {
		base = dice.NewSeededSource(cfg.Simulation.Seed)
	} else {
		base = dice.NewCryptoSource()
	}
	src := dice.NewLoggedSource(base, logger)

	// Firing policies
	scripts := scripting.NewManager(dice.NewLoggedRoller(src, logger), logger)
	defer scripts.Close()
	policies, err := buildPolicies(cfg.AI, src, scripts, logger)
	if err != nil {
		logger.Fatal("building firing policies", zap.Error(err))
	}
	pilot, _ := policies.Policy(cfg.AI.PlayerPolicy)
	enemyPolicy, _ := policies.Policy(cfg.AI.EnemyPolicy)

	ctrl, err := combat.NewController(player, enemy,
		combat.WithLogger(logger),
		combat.WithSource(src),
		combat.WithEnemyPolicy(enemyPolicy),
		combat.WithStrictInvariants(cfg.Simulation.StrictInvariants),
	)
	if err != nil {
		logger.Fatal("starting engagement", zap.Error(err))
	}

	tel := newTelemetry(256, logger)
	ctrl.Subscribe(tel.ch)
	eng := newEngagement(ctrl, pilot, cfg.Simulation.TimeScale, cfg.Simulation.MaxDuration.Seconds(), logger)
	driver := clock.NewDriver(cfg.Simulation.TickInterval, eng.step)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("telemetry", tel)
	lifecycle.Add("engagement", driver)

	logger.Info("simulator initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("tick_interval", cfg.Simulation.TickInterval),
		zap.Uint64("seed", cfg.Simulation.Seed),
		zap.String("player_policy", cfg.AI.PlayerPolicy),
		zap.String("enemy_policy", cfg.AI.EnemyPolicy),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("simulator error", zap.Error(err))
	}

	out, timedOut := eng.outcome()
	fields := []zap.Field{
		zap.Stringer("state", out.State),
		zap.Bool("victory", out.Victory),
		zap.Bool("timed_out", timedOut),
		zap.Int("scrap", out.ScrapReward),
		zap.Int("surviving_crew", len(out.SurvivingCrew)),
		zap.Float64("hull_percent", out.FinalHullPercent),
		zap.Float64("elapsed", out.Elapsed),
	}
	for _, item := range out.Loot {
		fields = append(fields, zap.Int("loot."+item.ItemDefID, item.Quantity))
	}
	for kind, n := range tel.Counts() {
		fields = append(fields, zap.Int("events."+kind.String(), n))
	}
	if summary := announceOutcome(scripts, out, timedOut); summary != "" {
		fields = append(fields, zap.String("summary", summary))
	}
	logger.Info("engagement result", fields...)
}

// buildShip instantiates the template registered under id.
func buildShip(templates map[string]*ship.Template, id string, cfg config.Config) (*ship.Ship, error) {
	tmpl, ok := templates[id]
	if !ok {
		return nil, fmt.Errorf("ship template %q not found in %s", id, cfg.Simulation.ShipsDir)
	}
	return tmpl.Build(cfg.Rules)
}

// buildPolicies loads the configured Lua script sets and registers the
// weighted and idle policies, plus the scripted policy when a script set can
// answer for it.
func buildPolicies(cfg config.AIConfig, src dice.Source, scripts *scripting.Manager, logger *zap.Logger) (*ai.Registry, error) {
	reg := ai.NewRegistry()
	weighted := ai.NewWeightedPolicy(src, cfg.FireDelay)
	if err := reg.Register(config.PolicyWeighted, weighted); err != nil {
		return nil, err
	}
	if err := reg.Register(config.PolicyIdle, ai.IdlePolicy{}); err != nil {
		return nil, err
	}
	if cfg.SharedScriptDir != "" {
		if err := scripts.LoadGlobal(cfg.SharedScriptDir, cfg.InstructionLimit); err != nil {
			return nil, err
		}
	}
	if cfg.ScriptDir != "" {
		if err := scripts.Load(scriptKey, cfg.ScriptDir, cfg.InstructionLimit); err != nil {
			return nil, err
		}
	}
	if scripts.Has(scriptKey) {
		scripted := ai.NewScriptedPolicy(scripts, scriptKey, weighted, logger)
		if err := reg.Register(config.PolicyScripted, scripted); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{cfg.PlayerPolicy, cfg.EnemyPolicy} {
		if _, ok := reg.Policy(name); !ok {
			return nil, fmt.Errorf("firing policy %q is not available (registered: %v)", name, reg.Names())
		}
	}
	return reg, nil
}
