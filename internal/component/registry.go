// Package component holds the built-in components and the name registry
// scene files use to attach them.
package component

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/world"
)

// Factory attaches one component to id, configured from params. params
// may be nil.
type Factory func(w *world.World, id ecs.EntityID, params *yaml.Node) (ecs.TypedID, error)

// Registry maps component names used in scene files to factories.
type Registry struct {
	factories map[string]Factory
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		log:       log.Named("components"),
	}
}

// Register maps name to f. A later registration under the same name wins.
func (reg *Registry) Register(name string, f Factory) {
	if _, ok := reg.factories[name]; ok {
		reg.log.Debug("component factory replaced", zap.String("name", name))
	}
	reg.factories[name] = f
}

func (reg *Registry) Has(name string) bool {
	_, ok := reg.factories[name]
	return ok
}

// Names returns the registered names, sorted.
func (reg *Registry) Names() []string {
	out := make([]string, 0, len(reg.factories))
	for name := range reg.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Attach builds the named component on id.
func (reg *Registry) Attach(w *world.World, id ecs.EntityID, name string, params *yaml.Node) (ecs.TypedID, error) {
	f, ok := reg.factories[name]
	if !ok {
		return ecs.TypedID{}, fmt.Errorf("unknown component %q", name)
	}
	return reg.safeCall(f, w, id, name, params)
}

// safeCall runs a factory with panic recovery so one bad component entry
// cannot take down scene loading.
func (reg *Registry) safeCall(f Factory, w *world.World, id ecs.EntityID, name string, params *yaml.Node) (tid ecs.TypedID, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("component factory panic recovered",
				zap.String("component", name),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("component %s: factory panic: %v", name, rec)
		}
	}()
	return f(w, id, params)
}

// Decoded returns a Factory that decodes params into a fresh T before its
// Init runs.
func Decoded[T any]() Factory {
	return func(w *world.World, id ecs.EntityID, params *yaml.Node) (ecs.TypedID, error) {
		ref, err := world.AddComponentWith[T](w, id, func(c *T) error {
			return decodeParams(params, c)
		})
		return ref.ID(), err
	}
}

func decodeParams(params *yaml.Node, out any) error {
	if params == nil || params.Kind == 0 {
		return nil
	}
	if params.Kind == yaml.ScalarNode && params.Tag == "!!null" {
		return nil
	}
	if err := params.Decode(out); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}
