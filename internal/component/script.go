package component

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/scripting"
	"github.com/tandem/engine/internal/world"
)

var errNoEngine = errors.New("script: no lua engine")

// Script runs a Lua behavior. Hooks: init, update(dt), fixed_update(dt),
// click, gui and delete. Defining click registers the entity for clicks.
type Script struct {
	Behavior string         `yaml:"behavior"`
	Params   map[string]any `yaml:"params"`

	engine *scripting.Engine
	inst   *scripting.Instance
}

// ScriptFactory returns the scene factory for scripts run by engine.
func ScriptFactory(engine *scripting.Engine) Factory {
	return func(w *world.World, id ecs.EntityID, params *yaml.Node) (ecs.TypedID, error) {
		ref, err := world.AddComponentWith[Script](w, id, func(s *Script) error {
			s.engine = engine
			return decodeParams(params, s)
		})
		return ref.ID(), err
	}
}

// AttachScript adds a Script running behavior to id.
func AttachScript(w *world.World, id ecs.EntityID, engine *scripting.Engine, behavior string, params map[string]any) (world.CRef[Script], error) {
	return world.AddComponentWith[Script](w, id, func(s *Script) error {
		s.engine, s.Behavior, s.Params = engine, behavior, params
		return nil
	})
}

// Instance returns the running behavior, nil before a successful Init.
func (s *Script) Instance() *scripting.Instance { return s.inst }

func (s *Script) Init(c *world.Context) error {
	if s.engine == nil {
		return errNoEngine
	}
	inst, err := s.engine.NewInstance(s.Behavior, s.Params)
	if err != nil {
		return err
	}
	s.inst = inst
	if inst.Has("click") {
		c.World.NotifyFor(c.Owner, ecs.EventClick)
	}
	return inst.Call("init", &scriptHost{c: c})
}

func (s *Script) Update(c *world.Context) error {
	if s.inst == nil {
		return nil
	}
	return s.inst.Call("update", &scriptHost{c: c}, c.Delta().Seconds())
}

func (s *Script) FixedUpdate(c *world.Context) error {
	if s.inst == nil {
		return nil
	}
	return s.inst.Call("fixed_update", &scriptHost{c: c}, c.World.FixedTimestep().Seconds())
}

func (s *Script) OnClick(c *world.Context) error {
	if s.inst == nil {
		return nil
	}
	return s.inst.Call("click", &scriptHost{c: c})
}

func (s *Script) OnGUI(c *world.Context, ui *render.UI) error {
	if s.inst == nil || !s.inst.Has("gui") {
		return nil
	}
	var err error
	ui.Window(s.Behavior, func(u *render.UI) {
		err = s.inst.Call("gui", &scriptHost{c: c, ui: u})
	})
	return err
}

func (s *Script) Delete(c *world.Context) {
	if s.inst == nil {
		return
	}
	if s.inst.Has("click") {
		c.World.StopNotifyFor(c.Owner, ecs.EventClick)
	}
	if err := s.inst.Call("delete", &scriptHost{c: c}); err != nil {
		c.Log().Warn("script delete hook failed", zap.String("behavior", s.Behavior), zap.Error(err))
	}
}

// scriptHost exposes one callback's context to Lua.
type scriptHost struct {
	c  *world.Context
	ui *render.UI
}

func (h *scriptHost) Name() string {
	if e := h.c.Entity(); e != nil {
		return e.Name
	}
	return ""
}

func (h *scriptHost) Position() mgl32.Vec3 {
	if t := h.c.Transform(); t != nil {
		return t.Position()
	}
	return mgl32.Vec3{}
}

func (h *scriptHost) SetPosition(p mgl32.Vec3) {
	if t := h.c.Transform(); t != nil {
		t.SetPosition(p)
	}
}

func (h *scriptHost) RotateEuler(x, y, z float32) {
	if t := h.c.Transform(); t != nil {
		t.RotateEuler(x, y, z)
	}
}

func (h *scriptHost) Property(key string) (any, bool) {
	if e := h.c.Entity(); e != nil {
		return e.Property(key)
	}
	return nil, false
}

func (h *scriptHost) SetProperty(key string, v any) {
	if e := h.c.Entity(); e != nil {
		e.SetProperty(key, v)
	}
}

func (h *scriptHost) KeyDown(key string) bool { return h.c.Input().IsKeyDown(key) }

// Label writes to the script's window; outside gui it is dropped.
func (h *scriptHost) Label(text string) {
	if h.ui != nil {
		h.ui.Label(text)
	}
}

func (h *scriptHost) Destroy() { h.c.World.Delete(h.c.Owner) }
