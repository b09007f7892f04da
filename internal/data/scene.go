package data

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/tandem/engine/internal/component"
	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/world"
)

// Scene is a YAML scene file: physics settings plus an entity tree.
type Scene struct {
	Name     string      `yaml:"name"`
	Gravity  *mgl32.Vec3 `yaml:"gravity"`
	Floor    *float32    `yaml:"floor"`
	Entities []EntityDef `yaml:"entities"`
}

// EntityDef describes one entity. Rotation is Euler degrees, XYZ order.
type EntityDef struct {
	Name       string         `yaml:"name"`
	Position   mgl32.Vec3     `yaml:"position"`
	Rotation   mgl32.Vec3     `yaml:"rotation"`
	Scale      *mgl32.Vec3    `yaml:"scale"`
	Disabled   bool           `yaml:"disabled"`
	Properties map[string]any `yaml:"properties"`
	Components []ComponentDef `yaml:"components"`
	Children   []EntityDef    `yaml:"children"`
}

// ComponentDef names a registered component; Params is decoded by its factory.
type ComponentDef struct {
	Type   string    `yaml:"type"`
	Params yaml.Node `yaml:"params"`
}

// LoadScene reads and validates a scene file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := validate(s.Entities, ""); err != nil {
		return nil, err
	}
	return &s, nil
}

func validate(defs []EntityDef, parent string) error {
	for i := range defs {
		d := &defs[i]
		if d.Name == "" {
			return fmt.Errorf("entity #%d under %q has no name", i, parent)
		}
		for j, c := range d.Components {
			if c.Type == "" {
				return fmt.Errorf("entity %q: component #%d has no type", d.Name, j)
			}
		}
		if err := validate(d.Children, d.Name); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of entities in the tree.
func (s *Scene) Count() int {
	var n func([]EntityDef) int
	n = func(defs []EntityDef) int {
		total := len(defs)
		for i := range defs {
			total += n(defs[i].Children)
		}
		return total
	}
	return n(s.Entities)
}

// Spawn creates the scene's entities in w and attaches their components
// through reg. A component that fails to attach does not stop the rest;
// every failure is returned combined. The root ids are returned in file
// order.
func (s *Scene) Spawn(w *world.World, reg *component.Registry) ([]ecs.EntityID, error) {
	if s.Gravity != nil {
		w.Physics().Gravity = *s.Gravity
	}
	if s.Floor != nil {
		f := *s.Floor
		w.Physics().Floor = &f
	}
	var errs error
	roots := make([]ecs.EntityID, 0, len(s.Entities))
	for i := range s.Entities {
		id, err := spawn(w, reg, &s.Entities[i], 0)
		errs = multierr.Append(errs, err)
		roots = append(roots, id)
	}
	return roots, errs
}

func spawn(w *world.World, reg *component.Registry, d *EntityDef, parent ecs.EntityID) (ecs.EntityID, error) {
	id := w.NewEntity(d.Name)
	e := w.Entity(id)
	e.Transform.SetPosition(d.Position)
	if d.Rotation != (mgl32.Vec3{}) {
		e.Transform.RotateEuler(mgl32.DegToRad(d.Rotation[0]), mgl32.DegToRad(d.Rotation[1]), mgl32.DegToRad(d.Rotation[2]))
	}
	if d.Scale != nil {
		e.Transform.SetScale(*d.Scale)
	}
	for k, v := range d.Properties {
		e.SetProperty(k, v)
	}
	if !parent.IsZero() {
		w.AddChild(parent, id)
	}

	// Components see the final hierarchy and enable state in Init.
	e.SetEnabled(!d.Disabled)
	var errs error
	for i := range d.Components {
		c := &d.Components[i]
		if _, err := reg.Attach(w, id, c.Type, &c.Params); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("entity %q: %w", d.Name, err))
		}
	}
	for i := range d.Children {
		_, err := spawn(w, reg, &d.Children[i], id)
		errs = multierr.Append(errs, err)
	}
	return id, errs
}
