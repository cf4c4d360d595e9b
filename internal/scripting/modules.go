package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L:
//
//	engine.dice.roll(expr) -> total   rolls a dice expression such as "1d6+2"
//	engine.log.debug(msg), engine.log.info(msg)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	diceMod := L.NewTable()
	L.SetField(diceMod, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "dice", diceMod)

	logMod := L.NewTable()
	L.SetField(logMod, "debug", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(logMod, "info", L.NewFunction(func(L *lua.LState) int {
		m.logger.Info("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(engine, "log", logMod)

	L.SetGlobal("engine", engine)
}

func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	res, err := m.roller.RollExpr(expr)
	if err != nil {
		L.RaiseError("engine.dice.roll: %s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}
