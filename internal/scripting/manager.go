package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/game/dice"
)

// globalScope is the reserved key for scripts loaded via LoadGlobal. Calls
// fall back to this VM when the requested scope has none.
const globalScope = "__global__"

// EntityInfo is a snapshot of an entity handed to Lua by engine.entity.
type EntityInfo struct {
	ID     uint64
	Kind   string
	Level  string
	X, Y   int
	HP     int
	MaxHP  int
	Player bool
}

type vm struct {
	L     *lua.LState
	limit int
	// cancel releases the current instruction budget.
	cancel func()
}

// Manager owns one sandboxed LState per scope (a level ID) plus an optional
// global VM, and dispatches hook calls into them.
//
// Each LState is single-threaded. Calls are serialised by the Manager.
type Manager struct {
	mu     sync.Mutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// QueryEntity is injected after construction. nil makes engine.entity return nil.
	QueryEntity func(id uint64) *EntityInfo
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadScope creates a VM for scope, registers the engine module and runs
// every *.lua file in scriptDir in lexicographic order. A previous VM for
// the same scope is replaced.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	if scope == "" {
		return fmt.Errorf("scripting: scope must not be empty")
	}
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the fallback VM shared by every scope.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, path := range files {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.vms[key]; ok {
		old.cancel()
		old.L.Close()
	}
	m.vms[key] = &vm{L: L, limit: instLimit, cancel: cancel}
	return nil
}

// Has reports whether hook is a function in scope's VM or the global VM.
func (m *Manager) Has(scope, hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.lookup(scope)
	return v != nil && v.L.GetGlobal(hook).Type() == lua.LTFunction
}

func (m *Manager) lookup(scope string) *vm {
	if v, ok := m.vms[scope]; ok {
		return v
	}
	return m.vms[globalScope]
}

// CallHook calls the Lua global function hook in scope's VM, falling back to
// the global VM. Every call gets a fresh instruction budget.
//
// Postcondition: returns the first return value, or LNil if no VM or hook
// exists. Lua runtime errors, including an exhausted budget, are logged at
// Warn and yield LNil with a nil error.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(scope, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallWithFields calls hook with a single table argument built from fields.
// Supported value types are string, bool, the integer kinds and float64;
// others are rendered with fmt.
func (m *Manager) CallWithFields(scope, hook string, fields map[string]any) (lua.LValue, error) {
	return m.call(scope, hook, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{toTable(L, fields)}
	})
}

func (m *Manager) call(scope, hook string, args func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.lookup(scope)
	if v == nil {
		m.logger.Debug("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.cancel()
	v.cancel = Rebudget(v.L, v.limit)
	if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args(v.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// CheckAction calls hook with the action fields and reports whether the
// script vetoed the action by returning "reject" or false.
func (m *Manager) CheckAction(scope, hook string, fields map[string]any) (bool, error) {
	ret, err := m.CallWithFields(scope, hook, fields)
	if err != nil {
		return false, err
	}
	switch r := ret.(type) {
	case lua.LString:
		return string(r) == "reject", nil
	case lua.LBool:
		return !bool(r), nil
	}
	return false, nil
}

// Predicate calls fn with fields and returns the truthiness of its result.
// A missing function is an error; a Lua runtime error is false.
func (m *Manager) Predicate(scope, fn string, fields map[string]any) (bool, error) {
	if !m.Has(scope, fn) {
		return false, fmt.Errorf("scripting: predicate %q not defined for scope %q", fn, scope)
	}
	ret, err := m.CallWithFields(scope, fn, fields)
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(ret), nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.vms {
		v.cancel()
		v.L.Close()
		delete(m.vms, k)
	}
}

func toTable(L *lua.LState, fields map[string]any) *lua.LTable {
	t := L.NewTable()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.RawSetString(k, toValue(fields[k]))
	}
	return t
}

func toValue(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case uint32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case fmt.Stringer:
		return lua.LString(v.String())
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
