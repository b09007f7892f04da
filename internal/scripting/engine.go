package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding every script behavior.
// Single-goroutine access only (simulation goroutine).
type Engine struct {
	vm        *lua.LState
	behaviors map[string]*lua.LTable
	log       *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: top-level files first, then behaviors/.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, behaviors: make(map[string]*lua.LTable), log: log.Named("lua")}
	vm.SetGlobal("behavior", vm.NewFunction(e.luaBehavior))

	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "behaviors")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	e.log.Info("lua behaviors loaded", zap.Int("count", len(e.behaviors)))
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine's VM. Behaviors it declares become
// available right away.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("lua chunk: %w", err)
	}
	return nil
}

// behavior(name, table) registers a behavior table from Lua.
func (e *Engine) luaBehavior(L *lua.LState) int {
	name := L.CheckString(1)
	tbl := L.CheckTable(2)
	if _, dup := e.behaviors[name]; dup {
		e.log.Warn("lua behavior redefined", zap.String("behavior", name))
	}
	e.behaviors[name] = tbl
	return 0
}

func (e *Engine) HasBehavior(name string) bool {
	_, ok := e.behaviors[name]
	return ok
}

// Behaviors returns the registered behavior names, sorted.
func (e *Engine) Behaviors() []string {
	out := make([]string, 0, len(e.behaviors))
	for name := range e.behaviors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) Close() error {
	e.vm.Close()
	return nil
}

// Host is what a running behavior can see of the entity it is attached to.
// It is swapped in for the duration of each hook call.
type Host interface {
	Name() string
	Position() mgl32.Vec3
	SetPosition(p mgl32.Vec3)
	RotateEuler(x, y, z float32)
	Property(key string) (any, bool)
	SetProperty(key string, v any)
	KeyDown(key string) bool
	Label(text string)
	Destroy()
}

// Instance is one behavior bound to one component. Its self table keeps
// per-instance Lua state between calls.
type Instance struct {
	e        *Engine
	behavior string
	def      *lua.LTable
	self     *lua.LTable
	host     Host
}

// NewInstance creates a fresh self table for the named behavior. Fields
// in params are copied onto self before any hook runs.
func (e *Engine) NewInstance(behavior string, params map[string]any) (*Instance, error) {
	def, ok := e.behaviors[behavior]
	if !ok {
		return nil, fmt.Errorf("unknown lua behavior %q", behavior)
	}
	in := &Instance{e: e, behavior: behavior, def: def}
	in.self = e.newSelf(in)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		in.self.RawSetString(k, toLua(e.vm, params[k]))
	}
	return in, nil
}

func (in *Instance) Behavior() string { return in.behavior }

// Has reports whether the behavior defines hook.
func (in *Instance) Has(hook string) bool {
	_, ok := in.def.RawGetString(hook).(*lua.LFunction)
	return ok
}

// Field reads a value from the instance's self table.
func (in *Instance) Field(key string) any {
	return fromLua(in.self.RawGetString(key))
}

// Call runs hook(self, args...) with h as the host. Missing hooks are a
// no-op; Lua errors come back wrapped.
func (in *Instance) Call(hook string, h Host, args ...any) error {
	fn, ok := in.def.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return nil
	}
	vm := in.e.vm
	lv := make([]lua.LValue, 0, len(args)+1)
	lv = append(lv, in.self)
	for _, a := range args {
		lv = append(lv, toLua(vm, a))
	}

	prev := in.host
	in.host = h
	defer func() { in.host = prev }()

	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lv...); err != nil {
		return fmt.Errorf("lua %s.%s: %w", in.behavior, hook, err)
	}
	return nil
}

// newSelf builds the self table with its host methods. Methods resolve the
// host at call time so one table serves every hook.
func (e *Engine) newSelf(in *Instance) *lua.LTable {
	vm := e.vm
	self := vm.NewTable()
	method := func(name string, fn func(L *lua.LState, h Host) int) {
		self.RawSetString(name, vm.NewFunction(func(L *lua.LState) int {
			if in.host == nil {
				L.RaiseError("%s called outside a hook", name)
				return 0
			}
			return fn(L, in.host)
		}))
	}

	method("name", func(L *lua.LState, h Host) int {
		L.Push(lua.LString(h.Name()))
		return 1
	})
	method("position", func(L *lua.LState, h Host) int {
		p := h.Position()
		L.Push(lua.LNumber(p[0]))
		L.Push(lua.LNumber(p[1]))
		L.Push(lua.LNumber(p[2]))
		return 3
	})
	method("set_position", func(L *lua.LState, h Host) int {
		h.SetPosition(mgl32.Vec3{float32(L.CheckNumber(2)), float32(L.CheckNumber(3)), float32(L.CheckNumber(4))})
		return 0
	})
	method("translate", func(L *lua.LState, h Host) int {
		d := mgl32.Vec3{float32(L.CheckNumber(2)), float32(L.CheckNumber(3)), float32(L.CheckNumber(4))}
		h.SetPosition(h.Position().Add(d))
		return 0
	})
	method("rotate", func(L *lua.LState, h Host) int {
		h.RotateEuler(float32(L.CheckNumber(2)), float32(L.CheckNumber(3)), float32(L.CheckNumber(4)))
		return 0
	})
	method("property", func(L *lua.LState, h Host) int {
		v, ok := h.Property(L.CheckString(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(toLua(L, v))
		return 1
	})
	method("set_property", func(L *lua.LState, h Host) int {
		h.SetProperty(L.CheckString(2), fromLua(L.Get(3)))
		return 0
	})
	method("key_down", func(L *lua.LState, h Host) int {
		L.Push(lua.LBool(h.KeyDown(L.CheckString(2))))
		return 1
	})
	method("label", func(L *lua.LState, h Host) int {
		h.Label(L.CheckString(2))
		return 0
	})
	method("destroy", func(L *lua.LState, h Host) int {
		h.Destroy()
		return 0
	})
	method("log", func(L *lua.LState, h Host) int {
		e.log.Info(L.CheckString(2), zap.String("behavior", in.behavior), zap.String("entity", h.Name()))
		return 0
	})
	return self
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case []any:
		t := L.NewTable()
		for _, x := range v {
			t.Append(toLua(L, x))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, x := range v {
			t.RawSetString(k, toLua(L, x))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(v.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		v.ForEach(func(k, x lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				out[string(ks)] = fromLua(x)
			}
		})
		return out
	default:
		return nil
	}
}
