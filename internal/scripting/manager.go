package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/shipsim/internal/game/dice"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// Calls fall back to this VM when no VM is registered under the requested key.
const globalKey = "__global__"

// vm is one sandboxed LState. Each LState is single-threaded; mu serialises
// every entry into it.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	cancel func()
}

// Manager owns one sandboxed LState per script set and dispatches hook calls.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no script sets loaded.
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

// Load creates a sandboxed VM for key, registers the engine.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. A VM already
// registered under key is replaced.
//
// Precondition: key must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM is registered; returns error on Lua load failure.
func (m *Manager) Load(key, scriptDir string, instLimit int) error {
	return m.loadInto(key, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used as a fallback for unknown keys.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: the global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalKey, scriptDir, instLimit)
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

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.vms[key]; ok {
		old.close()
	}
	m.vms[key] = &vm{L: L, limit: instLimit, cancel: cancel}
	m.mu.Unlock()
	m.logger.Debug("scripting: loaded scripts",
		zap.String("key", key),
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Has reports whether calls for key resolve to a VM: one registered under
// key, or the global VM.
func (m *Manager) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.vms[key]; ok {
		return true
	}
	_, ok := m.vms[globalKey]
	return ok
}

// Invoke calls the Lua global function hook in key's VM with the arguments
// built by args, then hands the first return value to decode. args and decode
// run while the VM is held, so they may create and read Lua values freely.
// When key has no VM the global VM is used.
//
// Postcondition: Returns (false, nil) when no VM exists or the hook is not
// defined; Lua runtime errors are returned wrapped.
func (m *Manager) Invoke(key, hook string, args func(L *lua.LState) []lua.LValue, decode func(L *lua.LState, ret lua.LValue) error) (bool, error) {
	m.mu.RLock()
	v, ok := m.vms[key]
	if !ok {
		v = m.vms[globalKey]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for key",
			zap.String("key", key),
			zap.String("hook", hook),
		)
		return false, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L
	if L == nil {
		return false, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return false, nil
	}

	var argv []lua.LValue
	if args != nil {
		argv = args(L)
	}
	v.cancel()
	v.cancel = ResetBudget(L, v.limit)
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, argv...); err != nil {
		return true, fmt.Errorf("scripting: %s in %q: %w", hook, key, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if decode == nil {
		return true, nil
	}
	return true, decode(L, ret)
}

// CallHook calls the named Lua global function in key's VM. Returns (LNil, nil)
// if the hook is not defined or no VM exists. Lua runtime errors are logged at
// Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error) {
	ret := lua.LValue(lua.LNil)
	_, err := m.Invoke(key, hook,
		func(*lua.LState) []lua.LValue { return args },
		func(_ *lua.LState, v lua.LValue) error {
			ret = v
			return nil
		},
	)
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Close releases every VM.
//
// Postcondition: no VM remains registered.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.vms {
		v.close()
		delete(m.vms, key)
	}
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	if v.L != nil {
		v.L.Close()
		v.L = nil
	}
}
