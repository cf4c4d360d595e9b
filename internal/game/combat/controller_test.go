package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/shipsim/internal/game/combat"
	"github.com/cory-johannsen/shipsim/internal/game/rules"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// alwaysFire orders every weapon at the hull on every tick.
type alwaysFire struct{}

func (alwaysFire) Decide(self, _ *ship.Ship) []combat.FireOrder {
	orders := make([]combat.FireOrder, len(self.Weapons))
	for i := range self.Weapons {
		orders[i] = combat.FireOrder{Weapon: i}
	}
	return orders
}

func newEngagement(t *testing.T, opts ...combat.Option) *combat.Controller {
	a := build(t, gunship(), rules.Default())
	b := build(t, target(), slowShields())
	opts = append([]combat.Option{combat.WithSource(fixedSrc{val: 0}), combat.WithStrictInvariants(true)}, opts...)
	c, err := combat.NewController(a, b, opts...)
	require.NoError(t, err)
	return c
}

func TestScenario_ThreeShotsToVictory(t *testing.T) {
	c := newEngagement(t)
	b := c.Enemy()
	c.Tick(10)

	v, err := c.FireWeapon(0, "")
	require.NoError(t, err)
	require.Len(t, v.Shots, 1)
	assert.Equal(t, combat.ShieldHit, v.Shots[0].Outcome)
	assert.Equal(t, 0, b.Shields.Layers())
	assert.Equal(t, 20, b.Hull())
	assert.Equal(t, 0.0, c.Player().Weapons[0].Charge())

	v, err = c.FireWeapon(1, "")
	require.NoError(t, err)
	assert.Equal(t, combat.HullDamage, v.Shots[0].Outcome)
	assert.Equal(t, 5, b.Hull())
	assert.Equal(t, combat.Active, c.Outcome().State)
	assert.False(t, c.Outcome().Victory)

	c.Tick(10)
	v, err = c.FireWeapon(0, "")
	require.NoError(t, err)
	assert.Equal(t, 5, v.Shots[0].HullDamage)
	assert.Equal(t, 0, b.Hull())

	out := c.Outcome()
	assert.True(t, out.Victory)
	assert.Equal(t, combat.PlayerVictory, out.State)
	assert.Equal(t, 10, out.ScrapReward)
	require.Len(t, out.Loot, 1)
	assert.Equal(t, 2, out.Loot[0].Quantity)
	assert.Equal(t, 100.0, out.FinalHullPercent)
	assert.Len(t, out.SurvivingCrew, 1)
	assert.Len(t, c.Volleys(), 3)
}

func TestTermination_FreezesState(t *testing.T) {
	c := newEngagement(t)
	c.Tick(10)
	_, err := c.FireWeapon(0, "")
	require.NoError(t, err)
	_, err = c.FireWeapon(1, "")
	require.NoError(t, err)
	c.Tick(10)
	_, err = c.FireWeapon(0, "")
	require.NoError(t, err)
	require.Equal(t, combat.PlayerVictory, c.State())

	hullA, hullB := c.Player().Hull(), c.Enemy().Hull()
	elapsed := c.Elapsed()
	for i := 0; i < 20; i++ {
		assert.Empty(t, c.Tick(1))
	}
	assert.Equal(t, hullA, c.Player().Hull())
	assert.Equal(t, hullB, c.Enemy().Hull())
	assert.Equal(t, elapsed, c.Elapsed())

	_, err = c.FireWeapon(1, "")
	assert.True(t, errors.Is(err, combat.ErrEngagementOver))
	assert.True(t, errors.Is(c.AllocatePower(combat.SidePlayer, ship.Weapons, -1), combat.ErrEngagementOver))
	assert.True(t, errors.Is(c.OrderCrew(c.Player().Crew[0].ID, "helm"), combat.ErrEngagementOver))
	assert.True(t, errors.Is(c.RepairAt(c.Player().Crew[0].ID), combat.ErrEngagementOver))
	assert.True(t, c.Outcome().Victory)
}

func TestFireWeapon_Rejections(t *testing.T) {
	c := newEngagement(t)

	_, err := c.FireWeapon(0, "")
	assert.True(t, errors.Is(err, combat.ErrWeaponNotReady))
	_, err = c.FireWeapon(7, "")
	assert.True(t, errors.Is(err, combat.ErrInvalidWeapon))

	c.Tick(10)
	_, err = c.FireWeapon(0, "bridge")
	assert.True(t, errors.Is(err, combat.ErrInvalidTarget))
	assert.True(t, c.Player().Weapons[0].Ready(), "rejected fire keeps the charge")

	require.NoError(t, c.AllocatePower(combat.SidePlayer, ship.Weapons, -1))
	_, err = c.FireWeapon(1, "")
	assert.True(t, errors.Is(err, combat.ErrWeaponUnpowered))
	assert.Empty(t, c.Volleys())
}

func TestAllocatePower_Rejections(t *testing.T) {
	c := newEngagement(t)
	err := c.AllocatePower(combat.SidePlayer, ship.Weapons, 1)
	assert.True(t, errors.Is(err, combat.ErrPowerRejected), "weapons at level")
	err = c.AllocatePower(combat.Side(9), ship.Weapons, 1)
	assert.True(t, errors.Is(err, combat.ErrUnknownSide))
	require.NoError(t, c.AllocatePower(combat.SideEnemy, ship.Shields, -1))
	assert.Equal(t, 0, c.Enemy().Shields.Layers())
}

func TestPause_StopsTimeButNotCommands(t *testing.T) {
	c := newEngagement(t)
	c.Tick(10)
	c.Pause()
	assert.True(t, c.Paused())
	assert.Empty(t, c.Tick(5))
	assert.Equal(t, 10.0, c.Elapsed())

	_, err := c.FireWeapon(0, "")
	require.NoError(t, err, "fire is legal while paused")
	c.Tick(5)
	assert.Equal(t, 0.0, c.Player().Weapons[0].Charge())

	c.Resume()
	c.Tick(5)
	assert.Equal(t, 5.0, c.Player().Weapons[0].Charge())
}

func TestCrewCommands(t *testing.T) {
	c := newEngagement(t)
	gunner := c.Player().Crew[0]
	assert.True(t, errors.Is(c.OrderCrew("nobody", "helm"), combat.ErrUnknownCrew))
	assert.True(t, errors.Is(c.RepairAt(gunner.ID), combat.ErrNothingToRepair))
	require.NoError(t, c.OrderCrew(gunner.ID, "helm"))
	assert.True(t, errors.Is(c.RepairAt(gunner.ID), combat.ErrCrewMoving))
	c.Tick(1)
	assert.Equal(t, "helm", gunner.Room)
}

func TestEnemyPolicy_DefeatsPlayer(t *testing.T) {
	a := build(t, target(), slowShields())
	a.Name = "Player"
	b := build(t, gunship(), rules.Default())
	c, err := combat.NewController(a, b,
		combat.WithSource(fixedSrc{val: 0}),
		combat.WithEnemyPolicy(alwaysFire{}),
		combat.WithStrictInvariants(true),
	)
	require.NoError(t, err)

	events := c.Tick(10)
	assert.Equal(t, 5, a.Hull(), "first shot spends the shield layer, the second hits")
	assert.Equal(t, combat.Active, c.State())
	assert.Empty(t, events)

	for i := 0; i < 10 && c.State() == combat.Active; i++ {
		c.Tick(1)
	}
	out := c.Outcome()
	assert.Equal(t, combat.PlayerDefeat, out.State)
	assert.False(t, out.Victory)
	assert.Zero(t, out.ScrapReward)
	assert.Equal(t, 0.0, out.FinalHullPercent)
}

func TestTermination_EnemyDestructionCheckedFirst(t *testing.T) {
	r := rules.Default()
	r.FireHullDamageChance = 1
	r.FireSystemDamageChance = 0
	r.FireSpreadChance = 0
	ta := target()
	ta.Hull = 1
	tb := target()
	tb.Hull = 1
	a := build(t, ta, r)
	b := build(t, tb, r)
	c, err := combat.NewController(a, b, combat.WithSource(fixedSrc{val: 0}))
	require.NoError(t, err)

	a.Ignite("helm")
	b.Ignite("helm")
	c.Tick(0.1)
	assert.True(t, a.Destroyed())
	assert.True(t, b.Destroyed())
	assert.Equal(t, combat.PlayerVictory, c.State())
}

func TestSubscribe_DeliversWithoutBlocking(t *testing.T) {
	c := newEngagement(t)
	buffered := make(chan ship.Event, 8)
	blocked := make(chan ship.Event)
	c.Subscribe(buffered)
	c.Subscribe(blocked)

	c.Tick(10)
	_, err := c.FireWeapon(0, "")
	require.NoError(t, err)
	_, err = c.FireWeapon(1, "shields")
	require.NoError(t, err)

	require.Len(t, buffered, 1)
	ev := <-buffered
	assert.Equal(t, ship.EventSystemOffline, ev.Kind)
	assert.Equal(t, ship.Shields, ev.System)
	assert.Equal(t, c.Enemy().ID, ev.ShipID)
}

func TestInvariantViolation_StrictPanics(t *testing.T) {
	c := newEngagement(t)
	c.Player().Crew[0].Health = 1000
	assert.Panics(t, func() { c.Tick(1) })
}

func TestInvariantViolation_LoggedWhenLenient(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c := newEngagement(t, combat.WithStrictInvariants(false), combat.WithLogger(zap.New(core)))
	c.Player().Crew[0].Health = 1000
	assert.NotPanics(t, func() { c.Tick(1) })
	assert.Equal(t, 1, logs.FilterMessage("invariant violation").Len())
}

func TestNewController_Rejections(t *testing.T) {
	a := build(t, gunship(), rules.Default())
	_, err := combat.NewController(a, nil)
	assert.Error(t, err)
	_, err = combat.NewController(a, a)
	assert.Error(t, err)
}

func TestNewController_AlreadyDestroyed(t *testing.T) {
	a := build(t, gunship(), rules.Default())
	b := build(t, target(), rules.Default())
	b.DamageHull(100)
	c, err := combat.NewController(a, b)
	require.NoError(t, err)
	assert.Equal(t, combat.PlayerVictory, c.State())
}
