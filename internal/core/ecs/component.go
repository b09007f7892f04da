package ecs

import (
	"fmt"
	"reflect"
)

// TypedID names one component: its concrete type plus its slot in that
// type's store. Two components are the same component iff their TypedIDs are equal.
type TypedID struct {
	Type reflect.Type
	ID   ComponentID
}

// TypeOf returns the store key for component type T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypedIDOf builds a TypedID for type T.
func TypedIDOf[T any](id ComponentID) TypedID {
	return TypedID{Type: TypeOf[T](), ID: id}
}

func (t TypedID) IsZero() bool { return t.Type == nil && t.ID == 0 }

// Is reports whether the id belongs to a component of type T.
func Is[T any](t TypedID) bool { return t.Type == TypeOf[T]() }

func (t TypedID) TypeName() string {
	if t.Type == nil {
		return "<nil>"
	}
	return t.Type.Name()
}

func (t TypedID) String() string {
	return fmt.Sprintf("%s#%dv%d", t.TypeName(), t.ID.Index(), t.ID.Generation())
}

// untypedStore is implemented by every Store[T] so Storage can address
// heterogeneous stores through a TypedID.
type untypedStore interface {
	get(id ComponentID) (any, EntityID, bool)
	remove(id ComponentID) bool
	each(fn func(ComponentID, EntityID, any))
	len() int
}

// Store is a generic typed slot store for one component type.
// No interface{} in the typed path: Get returns *T directly.
type Store[T any] struct {
	pool   *Pool[ComponentID]
	data   []*T
	owners []EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		pool:   NewPool[ComponentID](),
		data:   make([]*T, 0, 64),
		owners: make([]EntityID, 0, 64),
	}
}

func (s *Store[T]) Insert(owner EntityID, c *T) ComponentID {
	id := s.pool.Create()
	idx := int(id.Index())
	for len(s.data) <= idx {
		s.data = append(s.data, nil)
		s.owners = append(s.owners, 0)
	}
	s.data[idx] = c
	s.owners[idx] = owner
	return id
}

func (s *Store[T]) Get(id ComponentID) (*T, bool) {
	if !s.pool.Alive(id) {
		return nil, false
	}
	return s.data[id.Index()], true
}

func (s *Store[T]) Owner(id ComponentID) (EntityID, bool) {
	if !s.pool.Alive(id) {
		return 0, false
	}
	return s.owners[id.Index()], true
}

func (s *Store[T]) Remove(id ComponentID) bool {
	if !s.pool.Destroy(id) {
		return false
	}
	idx := id.Index()
	s.data[idx] = nil
	s.owners[idx] = 0
	return true
}

func (s *Store[T]) Has(id ComponentID) bool {
	return s.pool.Alive(id)
}

func (s *Store[T]) Len() int {
	return s.pool.Len()
}

// Each visits live components in slot order.
func (s *Store[T]) Each(fn func(ComponentID, *T)) {
	for i, c := range s.data {
		if c == nil {
			continue
		}
		id := ComponentID(makeKey(uint32(i), s.pool.generations[i]))
		fn(id, c)
	}
}

func (s *Store[T]) get(id ComponentID) (any, EntityID, bool) {
	c, ok := s.Get(id)
	if !ok {
		return nil, 0, false
	}
	return c, s.owners[id.Index()], true
}

func (s *Store[T]) remove(id ComponentID) bool { return s.Remove(id) }

func (s *Store[T]) each(fn func(ComponentID, EntityID, any)) {
	s.Each(func(id ComponentID, c *T) {
		fn(id, s.owners[id.Index()], c)
	})
}

func (s *Store[T]) len() int { return s.Len() }
