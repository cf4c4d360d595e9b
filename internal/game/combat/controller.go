package combat

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/shipsim/internal/game/clock"
	"github.com/cory-johannsen/shipsim/internal/game/dice"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// FireOrder asks the controller to fire one weapon at a room of the opposing
// ship; an empty Room aims at the hull alone.
type FireOrder struct {
	Weapon int
	Room   string
}

// FiringPolicy decides which weapons a ship fires. Decide is called once per
// active tick with the acting ship and its opponent; orders naming weapons
// that are not ready are rejected without effect.
type FiringPolicy interface {
	Decide(self, opponent *ship.Ship) []FireOrder
}

// Volley is the record of one accepted fire command.
type Volley struct {
	Side   Side
	Weapon string
	Room   string
	Shots  []ShotResult
}

// Outcome summarises an engagement. Reward fields are populated only once
// the player has won.
type Outcome struct {
	State            State
	Victory          bool
	ScrapReward      int
	Loot             []ship.LootItem
	SurvivingCrew    []string
	FinalHullPercent float64
	Elapsed          float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithSource sets the random source used by every draw in the engagement.
func WithSource(src dice.Source) Option {
	return func(c *Controller) { c.src = src }
}

// WithEnemyPolicy sets the policy that fires the enemy's weapons.
func WithEnemyPolicy(p FiringPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithStrictInvariants makes every invariant violation panic instead of being logged.
func WithStrictInvariants(strict bool) Option {
	return func(c *Controller) { c.strict = strict }
}

// Controller owns both ships of an engagement and is the only entry point
// for advancing it. A Controller is not safe for concurrent use.
type Controller struct {
	ID string

	player  *ship.Ship
	enemy   *ship.Ship
	clock   *clock.Clock
	src     dice.Source
	roller  *dice.Roller
	policy  FiringPolicy
	logger  *zap.Logger
	strict  bool
	state   State
	outcome *Outcome
	volleys []Volley
	subs    []chan<- ship.Event
}

// NewController starts an engagement between player and enemy. Both ships'
// shields are raised to full.
//
// Precondition: player and enemy must be distinct non-nil ships.
// Postcondition: Returns an Active controller, or a terminal one if a ship
// arrives already destroyed.
func NewController(player, enemy *ship.Ship, opts ...Option) (*Controller, error) {
	if player == nil || enemy == nil {
		return nil, fmt.Errorf("combat: both ships are required")
	}
	if player == enemy {
		return nil, fmt.Errorf("combat: a ship cannot engage itself")
	}
	c := &Controller{
		ID:     uuid.New().String(),
		player: player,
		enemy:  enemy,
		clock:  clock.New(),
		state:  Active,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.src == nil {
		c.src = dice.NewCryptoSource()
	}
	c.logger = c.logger.With(zap.String("engagement", c.ID))
	c.roller = dice.NewLoggedRoller(c.src, c.logger)

	player.RaiseShields()
	enemy.RaiseShields()
	c.logger.Info("engagement started",
		zap.String("player", player.Name),
		zap.String("enemy", enemy.Name),
		zap.Int("player_hull", player.Hull()),
		zap.Int("enemy_hull", enemy.Hull()),
	)
	c.checkInvariants()
	c.checkTermination()
	return c, nil
}

// Player returns the player ship.
func (c *Controller) Player() *ship.Ship { return c.player }

// Enemy returns the enemy ship.
func (c *Controller) Enemy() *ship.Ship { return c.enemy }

// Ship returns the ship on side.
func (c *Controller) Ship(side Side) (*ship.Ship, error) {
	switch side {
	case SidePlayer:
		return c.player, nil
	case SideEnemy:
		return c.enemy, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSide, side)
	}
}

// State returns the engagement state.
func (c *Controller) State() State { return c.state }

// Elapsed returns simulated seconds since the engagement started.
func (c *Controller) Elapsed() float64 { return c.clock.Elapsed() }

// Volleys returns every accepted volley in firing order.
func (c *Controller) Volleys() []Volley {
	out := make([]Volley, len(c.volleys))
	copy(out, c.volleys)
	return out
}

// Pause stops simulated time; commands remain legal.
func (c *Controller) Pause() { c.clock.Pause() }

// Resume restarts simulated time.
func (c *Controller) Resume() { c.clock.Resume() }

// Paused reports whether simulated time is stopped.
func (c *Controller) Paused() bool { return c.clock.Paused() }

// Subscribe registers ch for telemetry. Sends never block; events are
// dropped for a subscriber whose channel is full.
func (c *Controller) Subscribe(ch chan<- ship.Event) {
	c.subs = append(c.subs, ch)
}

// Tick advances the engagement by dt seconds: both ships' systems, crew and
// fires (player first), then enemy firing, then the termination check.
//
// Postcondition: Returns the telemetry produced during the step; nothing
// changes while paused or once the engagement is over.
func (c *Controller) Tick(dt float64) []ship.Event {
	if c.state != Active {
		return nil
	}
	step := c.clock.Advance(dt)
	if step <= 0 {
		return nil
	}

	events := c.player.Tick(step, c.src)
	events = append(events, c.enemy.Tick(step, c.src)...)

	if c.policy != nil && !c.enemy.Destroyed() && !c.player.Destroyed() {
		for _, order := range c.policy.Decide(c.enemy, c.player) {
			v, err := c.fire(SideEnemy, order.Weapon, order.Room)
			if err != nil {
				c.logger.Debug("enemy fire order rejected", zap.Int("weapon", order.Weapon), zap.Error(err))
				continue
			}
			events = append(events, volleyEvents(v)...)
		}
	}

	c.publish(events)
	c.checkInvariants()
	c.checkTermination()
	return events
}

// AllocatePower moves one unit of power on side's ship; see ship.PowerGrid.Allocate.
func (c *Controller) AllocatePower(side Side, kind ship.Kind, delta int) error {
	if c.state != Active {
		return ErrEngagementOver
	}
	s, err := c.Ship(side)
	if err != nil {
		return err
	}
	if !s.AllocatePower(kind, delta) {
		c.logger.Debug("power allocation rejected",
			zap.Stringer("side", side), zap.String("system", string(kind)), zap.Int("delta", delta))
		return fmt.Errorf("%s %s %+d: %w", side, kind, delta, ErrPowerRejected)
	}
	c.checkInvariants()
	return nil
}

// FireWeapon fires the player's weapon at index at roomID of the enemy ship.
// Every shot resolves before FireWeapon returns.
//
// Postcondition: on success the weapon's charge is 0 and the returned volley
// holds one ShotResult per shot.
func (c *Controller) FireWeapon(index int, roomID string) (Volley, error) {
	if c.state != Active {
		return Volley{}, ErrEngagementOver
	}
	v, err := c.fire(SidePlayer, index, roomID)
	if err != nil {
		c.logger.Debug("fire command rejected", zap.Int("weapon", index), zap.Error(err))
		return Volley{}, err
	}
	c.publish(volleyEvents(v))
	c.checkInvariants()
	c.checkTermination()
	return v, nil
}

// OrderCrew sends a player crew agent to roomID.
func (c *Controller) OrderCrew(crewID, roomID string) error {
	if c.state != Active {
		return ErrEngagementOver
	}
	if err := c.player.OrderCrew(crewID, roomID); err != nil {
		c.logger.Debug("crew order rejected", zap.String("crew", crewID), zap.Error(err))
		return err
	}
	return nil
}

// RepairAt has a player crew agent repair the room they stand in.
func (c *Controller) RepairAt(crewID string) error {
	if c.state != Active {
		return ErrEngagementOver
	}
	if err := c.player.Repair(crewID); err != nil {
		c.logger.Debug("repair rejected", zap.String("crew", crewID), zap.Error(err))
		return err
	}
	c.checkInvariants()
	return nil
}

// Outcome reports the engagement result. While Active it describes the
// current player state with no rewards.
func (c *Controller) Outcome() Outcome {
	if c.outcome != nil {
		return *c.outcome
	}
	return c.snapshot()
}

func (c *Controller) fire(side Side, index int, roomID string) (Volley, error) {
	attacker, _ := c.Ship(side)
	defender, _ := c.Ship(side.Opponent())

	if index < 0 || index >= len(attacker.Weapons) {
		return Volley{}, fmt.Errorf("%s weapon %d: %w", side, index, ErrInvalidWeapon)
	}
	if defender.Destroyed() {
		return Volley{}, fmt.Errorf("%s is destroyed: %w", defender.Name, ErrInvalidTarget)
	}
	if roomID != "" {
		if _, ok := defender.Room(roomID); !ok {
			return Volley{}, fmt.Errorf("room %q: %w", roomID, ErrInvalidTarget)
		}
	}
	w := attacker.Weapons[index]
	if !attacker.WeaponFunded(index) {
		return Volley{}, fmt.Errorf("%s: %w", w.Name, ErrWeaponUnpowered)
	}
	if !w.Ready() {
		return Volley{}, fmt.Errorf("%s: %w", w.Name, ErrWeaponNotReady)
	}

	w.Discharge()
	v := Volley{Side: side, Weapon: w.Name, Room: roomID}
	stagger := attacker.Rules().ShotStagger
	for i := 0; i < w.Shots; i++ {
		res := ResolveShot(w, defender, roomID, c.src)
		res.Delay = float64(i) * stagger
		v.Shots = append(v.Shots, res)
	}
	c.volleys = append(c.volleys, v)
	return v, nil
}

func volleyEvents(v Volley) []ship.Event {
	var events []ship.Event
	for _, s := range v.Shots {
		events = append(events, s.Events...)
	}
	return events
}

func (c *Controller) publish(events []ship.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case ship.EventSystemOffline, ship.EventShipDestroyed:
			c.logger.Info("ship event",
				zap.Stringer("kind", ev.Kind),
				zap.String("ship", ev.ShipID),
				zap.String("room", ev.RoomID),
				zap.String("system", string(ev.System)),
			)
		default:
			c.logger.Debug("ship event",
				zap.Stringer("kind", ev.Kind),
				zap.String("ship", ev.ShipID),
				zap.String("room", ev.RoomID),
				zap.String("crew", ev.CrewID),
			)
		}
		for _, ch := range c.subs {
			select {
			case ch <- ev:
			default:
				c.logger.Debug("subscriber full, event dropped", zap.Stringer("kind", ev.Kind))
			}
		}
	}
}

func (c *Controller) checkInvariants() {
	for _, s := range []*ship.Ship{c.player, c.enemy} {
		if err := s.CheckInvariants(); err != nil {
			if c.strict {
				panic(err)
			}
			c.logger.Error("invariant violation", zap.Error(err))
		}
	}
}

// checkTermination resolves the engagement once a hull reaches 0; the
// enemy's destruction is checked first.
func (c *Controller) checkTermination() {
	if c.state != Active {
		return
	}
	switch {
	case c.enemy.Destroyed():
		c.state = PlayerVictory
	case c.player.Destroyed():
		c.state = PlayerDefeat
	default:
		return
	}

	out := c.snapshot()
	if out.Victory {
		out.ScrapReward, out.Loot = c.rollRewards()
	}
	c.outcome = &out
	c.logger.Info("engagement over",
		zap.Stringer("state", out.State),
		zap.Int("scrap", out.ScrapReward),
		zap.Int("loot", len(out.Loot)),
		zap.Int("surviving_crew", len(out.SurvivingCrew)),
		zap.Float64("hull_percent", out.FinalHullPercent),
		zap.Float64("elapsed", out.Elapsed),
	)
}

func (c *Controller) snapshot() Outcome {
	out := Outcome{
		State:            c.state,
		Victory:          c.state == PlayerVictory,
		FinalHullPercent: c.player.HullPercent(),
		Elapsed:          c.clock.Elapsed(),
	}
	for _, crew := range c.player.ConsciousCrew() {
		out.SurvivingCrew = append(out.SurvivingCrew, crew.ID)
	}
	return out
}

func (c *Controller) rollRewards() (int, []ship.LootItem) {
	scrap := 0
	if c.enemy.Scrap != "" {
		res, err := c.roller.RollExpr(c.enemy.Scrap)
		if err != nil {
			c.logger.Error("rolling scrap reward", zap.String("expr", c.enemy.Scrap), zap.Error(err))
		} else {
			scrap = res.Total()
		}
	}
	var loot []ship.LootItem
	if c.enemy.Loot != nil {
		loot = ship.GenerateLoot(*c.enemy.Loot, c.src)
	}
	return scrap, loot
}
