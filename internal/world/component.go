package world

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/input"
	"github.com/tandem/engine/internal/render"
)

// Context is passed to every component callback: the world, the owning
// entity and the component's own id.
type Context struct {
	World *World
	Owner ecs.EntityID
	ID    ecs.TypedID
}

// Entity returns the owner's record. During Delete the record is already
// marked dead but still readable.
func (c *Context) Entity() *Entity { return c.World.record(c.Owner) }

func (c *Context) Transform() *Transform {
	if e := c.Entity(); e != nil {
		return &e.Transform
	}
	return nil
}

func (c *Context) Delta() time.Duration  { return c.World.clock.Delta() }
func (c *Context) Input() *input.Manager { return c.World.input }
func (c *Context) Log() *zap.Logger      { return c.World.log }

// Optional callbacks. A component implements any subset.
type (
	Initer           interface{ Init(c *Context) error }
	Updater          interface{ Update(c *Context) error }
	LateUpdater      interface{ LateUpdate(c *Context) error }
	PreFixedUpdater  interface{ PreFixedUpdate(c *Context) error }
	FixedUpdater     interface{ FixedUpdate(c *Context) error }
	PostFixedUpdater interface{ PostFixedUpdate(c *Context) error }
	PostUpdater      interface{ PostUpdate(c *Context) error }
	Clicker          interface{ OnClick(c *Context) error }
	GUIDrawer        interface {
		OnGUI(c *Context, ui *render.UI) error
	}
	// Deleter runs when an initialized component is removed. Components
	// dropped because their configure step failed never see Delete.
	Deleter interface{ Delete(c *Context) }

	RenderProxyCreator interface {
		CreateRenderProxy(c *Context) render.Proxy
	}
	LightProxyCreator interface {
		CreateLightProxy(c *Context) *render.LightProxy
	}
	ProxyUpdater interface {
		UpdateProxy(c *Context, d *DrawCtx)
	}
)

// CRef is a typed handle to a component. The owning entity keeps authority
// over its destruction; Get fails once it is removed.
type CRef[T any] struct {
	w     *World
	id    ecs.TypedID
	owner ecs.EntityID
}

func (r CRef[T]) ID() ecs.TypedID     { return r.id }
func (r CRef[T]) Owner() ecs.EntityID { return r.owner }
func (r CRef[T]) IsZero() bool        { return r.w == nil }

func (r CRef[T]) Get() (*T, bool) {
	if r.w == nil {
		return nil, false
	}
	return ecs.Get[T](r.w.storage, r.id.ID)
}

// MustGet panics if the component was removed.
func (r CRef[T]) MustGet() *T {
	c, ok := r.Get()
	if !ok {
		panic(fmt.Sprintf("component %s no longer registered", r.id))
	}
	return c
}

func (r CRef[T]) Valid() bool {
	_, ok := r.Get()
	return ok
}

func (r CRef[T]) Downgrade() CWeak[T] { return CWeak[T]{id: r.id, owner: r.owner} }

// CWeak is a typed component id without the world attached.
type CWeak[T any] struct {
	id    ecs.TypedID
	owner ecs.EntityID
}

func (r CWeak[T]) ID() ecs.TypedID { return r.id }

func (r CWeak[T]) Upgrade(w *World) (CRef[T], bool) {
	if r.id.IsZero() || !w.storage.Contains(r.id) {
		return CRef[T]{}, false
	}
	return CRef[T]{w: w, id: r.id, owner: r.owner}, true
}

// AddComponent attaches a zero T to id and runs its Init.
func AddComponent[T any](w *World, id ecs.EntityID) (CRef[T], error) {
	return AddComponentWith[T](w, id, nil)
}

// AddComponentWith is AddComponent with a configure step that runs after
// the component is attached but before Init.
func AddComponentWith[T any](w *World, id ecs.EntityID, configure func(*T) error) (CRef[T], error) {
	e := w.Entity(id)
	if e == nil {
		w.diag.DeadEntityOps++
		err := fmt.Errorf("add %s to %d: %w", ecs.TypeOf[T]().Name(), id, ErrEntityDead)
		w.diagnose(err)
		return CRef[T]{}, err
	}
	typ := ecs.TypeOf[T]()
	for _, tid := range e.components {
		if tid.Type == typ {
			w.diag.DuplicateComponents++
			err := fmt.Errorf("add %s to %q: %w", typ.Name(), e.Name, ErrDuplicateComponent)
			w.diagnose(err, zap.Stringer("kept", tid))
			return CRef[T]{w: w, id: tid, owner: id}, err
		}
	}

	c := new(T)
	tid := ecs.Add(w.storage, id, c)
	e.components = append(e.components, tid)
	ref := CRef[T]{w: w, id: tid, owner: id}

	if configure != nil {
		if err := configure(c); err != nil {
			e.components = e.components[:len(e.components)-1]
			w.storage.Remove(tid)
			return CRef[T]{}, fmt.Errorf("configure %s: %w", typ.Name(), err)
		}
	}
	if in, ok := any(c).(Initer); ok {
		if err := in.Init(w.ctx(id, tid)); err != nil {
			if err := w.callbackFailed("init", tid, err); err != nil {
				return ref, err
			}
		}
	}
	return ref, nil
}

// GetComponent returns the T attached to id.
func GetComponent[T any](w *World, id ecs.EntityID) (CRef[T], bool) {
	e := w.Entity(id)
	if e == nil {
		return CRef[T]{}, false
	}
	typ := ecs.TypeOf[T]()
	for _, tid := range e.components {
		if tid.Type == typ {
			return CRef[T]{w: w, id: tid, owner: id}, true
		}
	}
	return CRef[T]{}, false
}

// ComponentRef wraps a raw id as a typed ref if it is a live T.
func ComponentRef[T any](w *World, tid ecs.TypedID) (CRef[T], bool) {
	if !ecs.Is[T](tid) {
		return CRef[T]{}, false
	}
	_, owner, ok := w.storage.Lookup(tid)
	if !ok {
		return CRef[T]{}, false
	}
	return CRef[T]{w: w, id: tid, owner: owner}, true
}

// Component resolves a raw id to the component value and its owner.
func (w *World) Component(tid ecs.TypedID) (any, ecs.EntityID, bool) {
	return w.storage.Lookup(tid)
}

// RemoveComponent detaches the component, runs its Delete and unregisters
// it so the next sync tears down its proxy.
func (w *World) RemoveComponent(tid ecs.TypedID) bool {
	_, owner, ok := w.storage.Lookup(tid)
	if !ok {
		w.diag.StaleComponentOps++
		w.diagnose(fmt.Errorf("remove %s: %w", tid, ErrStaleComponent))
		return false
	}
	if e := w.record(owner); e != nil {
		if i := e.componentIndex(tid); i >= 0 {
			e.components = append(e.components[:i], e.components[i+1:]...)
		}
	}
	w.destroyComponent(owner, tid)
	return true
}

// RemoveComponentOf removes the T attached to id, if any.
func RemoveComponentOf[T any](w *World, id ecs.EntityID) bool {
	ref, ok := GetComponent[T](w, id)
	if !ok {
		return false
	}
	return w.RemoveComponent(ref.id)
}

func (w *World) destroyComponent(owner ecs.EntityID, tid ecs.TypedID) {
	c, _, ok := w.storage.Lookup(tid)
	if !ok {
		return
	}
	if d, ok := c.(Deleter); ok {
		d.Delete(w.ctx(owner, tid))
	}
	w.storage.Remove(tid)
}

func (w *World) ctx(owner ecs.EntityID, tid ecs.TypedID) *Context {
	return &Context{World: w, Owner: owner, ID: tid}
}
