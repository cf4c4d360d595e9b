package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/shipsim/internal/game/combat"
	"github.com/cory-johannsen/shipsim/internal/game/ship"
)

// ChooseTargetsHook is the Lua global a scripted policy calls each tick:
//
//	function choose_targets(self, opponent) return { {weapon = 1, room = "helm"} } end
//
// Weapon indices are 1-based; a nil room aims at the hull.
const ChooseTargetsHook = "choose_targets"

// ScriptInvoker is the interface required by ScriptedPolicy to run Lua hooks.
type ScriptInvoker interface {
	// Invoke calls hook in the VM registered under key; see scripting.Manager.Invoke.
	Invoke(key, hook string, args func(L *lua.LState) []lua.LValue, decode func(L *lua.LState, ret lua.LValue) error) (bool, error)
}

// ScriptedPolicy delegates target selection to a Lua script and falls back to
// another policy when the script is absent or fails.
//
// Invariant: invoker and fallback must not be nil.
type ScriptedPolicy struct {
	invoker  ScriptInvoker
	key      string
	fallback combat.FiringPolicy
	logger   *zap.Logger
}

// NewScriptedPolicy constructs a ScriptedPolicy that calls ChooseTargetsHook
// in the VM registered under key.
//
// Precondition: invoker and fallback must not be nil.
func NewScriptedPolicy(invoker ScriptInvoker, key string, fallback combat.FiringPolicy, logger *zap.Logger) *ScriptedPolicy {
	if invoker == nil {
		panic("ai.NewScriptedPolicy: invoker must not be nil")
	}
	if fallback == nil {
		panic("ai.NewScriptedPolicy: fallback must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptedPolicy{invoker: invoker, key: key, fallback: fallback, logger: logger}
}

// Decide implements combat.FiringPolicy.
//
// Postcondition: returns the script's orders with out-of-range weapons
// dropped, or the fallback's orders when the script cannot answer.
func (p *ScriptedPolicy) Decide(self, opponent *ship.Ship) []combat.FireOrder {
	var orders []combat.FireOrder
	found, err := p.invoker.Invoke(p.key, ChooseTargetsHook,
		func(L *lua.LState) []lua.LValue {
			return []lua.LValue{ownView(L, self), opponentView(L, opponent)}
		},
		func(_ *lua.LState, ret lua.LValue) error {
			var derr error
			orders, derr = decodeOrders(ret, len(self.Weapons))
			return derr
		},
	)
	if err != nil {
		p.logger.Warn("scripted policy failed, using fallback",
			zap.String("key", p.key),
			zap.String("ship", self.Name),
			zap.Error(err),
		)
		return p.fallback.Decide(self, opponent)
	}
	if !found {
		return p.fallback.Decide(self, opponent)
	}
	return orders
}

func ownView(L *lua.LState, s *ship.Ship) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(s.Name))
	L.SetField(t, "hull", lua.LNumber(s.Hull()))
	L.SetField(t, "max_hull", lua.LNumber(s.MaxHull()))
	weapons := L.NewTable()
	for i, w := range s.Weapons {
		wt := L.NewTable()
		L.SetField(wt, "index", lua.LNumber(i+1))
		L.SetField(wt, "name", lua.LString(w.Name))
		L.SetField(wt, "ready", lua.LBool(w.Ready()))
		L.SetField(wt, "funded", lua.LBool(s.WeaponFunded(i)))
		L.SetField(wt, "ready_for", lua.LNumber(w.ReadyFor()))
		L.SetField(wt, "damage", lua.LNumber(w.Damage))
		L.SetField(wt, "shots", lua.LNumber(w.Shots))
		L.SetField(wt, "piercing", lua.LBool(w.Piercing))
		weapons.Append(wt)
	}
	L.SetField(t, "weapons", weapons)
	return t
}

func opponentView(L *lua.LState, s *ship.Ship) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(s.Name))
	L.SetField(t, "hull", lua.LNumber(s.Hull()))
	L.SetField(t, "max_hull", lua.LNumber(s.MaxHull()))
	L.SetField(t, "shield_layers", lua.LNumber(s.Shields.Layers()))
	L.SetField(t, "evasion", lua.LNumber(s.Evasion()))
	rooms := L.NewTable()
	for _, r := range s.Rooms() {
		rt := L.NewTable()
		L.SetField(rt, "id", lua.LString(r.ID))
		L.SetField(rt, "system", lua.LString(string(r.System)))
		online := false
		if r.System != "" {
			online = !s.System(r.System).Disabled()
			L.SetField(rt, "damage", lua.LNumber(s.System(r.System).Damage()))
		}
		L.SetField(rt, "online", lua.LBool(online))
		L.SetField(rt, "burning", lua.LBool(r.Burning()))
		L.SetField(rt, "breached", lua.LBool(r.Breached))
		rooms.Append(rt)
	}
	L.SetField(t, "rooms", rooms)
	return t
}

func decodeOrders(ret lua.LValue, weapons int) ([]combat.FireOrder, error) {
	if ret == lua.LNil {
		return nil, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s must return a table, got %s", ChooseTargetsHook, ret.Type())
	}
	var orders []combat.FireOrder
	var derr error
	tbl.ForEach(func(_, v lua.LValue) {
		if derr != nil {
			return
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			derr = fmt.Errorf("%s entries must be tables, got %s", ChooseTargetsHook, v.Type())
			return
		}
		idx, ok := entry.RawGetString("weapon").(lua.LNumber)
		if !ok {
			derr = fmt.Errorf("%s entry is missing a numeric weapon", ChooseTargetsHook)
			return
		}
		i := int(idx) - 1
		if i < 0 || i >= weapons {
			return
		}
		order := combat.FireOrder{Weapon: i}
		if room, ok := entry.RawGetString("room").(lua.LString); ok {
			order.Room = string(room)
		}
		orders = append(orders, order)
	})
	if derr != nil {
		return nil, derr
	}
	return orders, nil
}
