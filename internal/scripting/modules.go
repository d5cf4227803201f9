package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules installs the engine table into L:
//
//	engine.log.debug(msg) / info / warn
//	engine.roll(expr) -> total, or nil on a bad expression
//	engine.entity(id) -> {id, kind, level, x, y, hp, max_hp, player} or nil
//
// Precondition: L must come from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
	} {
		logFn := fn
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			logFn("lua: " + L.CheckString(1))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))

	L.SetField(engine, "entity", L.NewFunction(func(L *lua.LState) int {
		id := uint64(L.CheckNumber(1))
		if m.QueryEntity == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.QueryEntity(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(info.ID))
		t.RawSetString("kind", lua.LString(info.Kind))
		t.RawSetString("level", lua.LString(info.Level))
		t.RawSetString("x", lua.LNumber(info.X))
		t.RawSetString("y", lua.LNumber(info.Y))
		t.RawSetString("hp", lua.LNumber(info.HP))
		t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
		t.RawSetString("player", lua.LBool(info.Player))
		L.Push(t)
		return 1
	}))

	L.SetGlobal("engine", engine)
}
