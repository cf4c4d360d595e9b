package main

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/shipsim/internal/game/combat"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// engagement drives one controller from the clock driver, firing the
// player's weapons through the public command surface.
type engagement struct {
	mu         sync.Mutex
	ctrl       *combat.Controller
	pilot      combat.FiringPolicy
	timeScale  float64
	maxElapsed float64
	timedOut   bool
	logger     *zap.Logger
}

func newEngagement(ctrl *combat.Controller, pilot combat.FiringPolicy, timeScale, maxElapsed float64, logger *zap.Logger) *engagement {
	return &engagement{
		ctrl:       ctrl,
		pilot:      pilot,
		timeScale:  timeScale,
		maxElapsed: maxElapsed,
		logger:     logger,
	}
}

// step advances the engagement by dt wall-clock seconds and reports whether
// it has ended. The player's orders resolve before the tick, so player fire
// precedes enemy fire when both become ready in the same step.
func (e *engagement) step(dt float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl.State() == combat.Active && !e.ctrl.Paused() {
		for _, order := range e.pilot.Decide(e.ctrl.Player(), e.ctrl.Enemy()) {
			if _, err := e.ctrl.FireWeapon(order.Weapon, order.Room); err != nil {
				e.logger.Debug("player order rejected", zap.Int("weapon", order.Weapon), zap.Error(err))
			}
			if e.ctrl.State() != combat.Active {
				break
			}
		}
	}
	e.ctrl.Tick(dt * e.timeScale)
	if e.ctrl.State() != combat.Active {
		return true
	}
	if e.maxElapsed > 0 && e.ctrl.Elapsed() >= e.maxElapsed {
		e.timedOut = true
		e.logger.Warn("engagement reached max duration", zap.Float64("elapsed", e.ctrl.Elapsed()))
		return true
	}
	return false
}

// outcome returns the controller outcome and whether the engagement was cut
// short by the duration cap.
func (e *engagement) outcome() (combat.Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Outcome(), e.timedOut
}

// Engagement hooks are looked up under engagementKey, which has no script set
// of its own and so resolves to the shared scripts.
const (
	engagementKey      = "engagement"
	engagementOverHook = "engagement_over"
)

// hookCaller is the part of scripting.Manager used to announce outcomes.
type hookCaller interface {
	CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error)
}

// announceOutcome hands the result to the shared scripts' engagement_over
// hook and returns the summary it produces, or "" when no script answers.
func announceOutcome(scripts hookCaller, out combat.Outcome, timedOut bool) string {
	ret, err := scripts.CallHook(engagementKey, engagementOverHook,
		lua.LString(out.State.String()),
		lua.LNumber(out.Elapsed),
		lua.LNumber(out.ScrapReward),
		lua.LBool(timedOut),
	)
	if err != nil {
		return ""
	}
	if summary, ok := ret.(lua.LString); ok {
		return string(summary)
	}
	return ""
}

// telemetry counts events by kind until stop is closed and ch drained.
type telemetry struct {
	ch     chan ship.Event
	stop   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	counts map[ship.EventKind]int
	logger *zap.Logger
}

func newTelemetry(buffer int, logger *zap.Logger) *telemetry {
	return &telemetry{
		ch:     make(chan ship.Event, buffer),
		stop:   make(chan struct{}),
		counts: make(map[ship.EventKind]int),
		logger: logger,
	}
}

// Start consumes events until Stop is called. It satisfies server.Service.
func (t *telemetry) Start() error {
	for {
		select {
		case ev := <-t.ch:
			t.record(ev)
		case <-t.stop:
			for {
				select {
				case ev := <-t.ch:
					t.record(ev)
				default:
					return nil
				}
			}
		}
	}
}

// Stop ends Start.
func (t *telemetry) Stop() { t.once.Do(func() { close(t.stop) }) }

func (t *telemetry) record(ev ship.Event) {
	t.mu.Lock()
	t.counts[ev.Kind]++
	t.mu.Unlock()
	t.logger.Debug("telemetry",
		zap.Stringer("kind", ev.Kind),
		zap.String("ship", ev.ShipID),
		zap.String("room", ev.RoomID),
	)
}

// Counts returns a copy of the per-kind event counts.
func (t *telemetry) Counts() map[ship.EventKind]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[ship.EventKind]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
