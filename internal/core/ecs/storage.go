package ecs

import "reflect"

// Storage is the component arena: one Store per concrete component type plus
// the fresh/removed journals the sync step drains once per frame.
type Storage struct {
	stores  map[reflect.Type]untypedStore
	order   []reflect.Type // registration order, keeps iteration deterministic
	count   int
	fresh   []TypedID
	removed []TypedID
}

func NewStorage() *Storage {
	return &Storage{
		stores: make(map[reflect.Type]untypedStore, 16),
		order:  make([]reflect.Type, 0, 16),
	}
}

// StoreOf returns the typed store for T, creating it on first use.
func StoreOf[T any](s *Storage) *Store[T] {
	t := TypeOf[T]()
	if st, ok := s.stores[t]; ok {
		return st.(*Store[T])
	}
	st := NewStore[T]()
	s.stores[t] = st
	s.order = append(s.order, t)
	return st
}

// Add registers c under owner and marks it fresh.
func Add[T any](s *Storage, owner EntityID, c *T) TypedID {
	id := StoreOf[T](s).Insert(owner, c)
	tid := TypedID{Type: TypeOf[T](), ID: id}
	s.count++
	s.fresh = append(s.fresh, tid)
	return tid
}

// Get returns the typed component behind id.
func Get[T any](s *Storage, id ComponentID) (*T, bool) {
	st, ok := s.stores[TypeOf[T]()]
	if !ok {
		return nil, false
	}
	return st.(*Store[T]).Get(id)
}

// Lookup resolves a TypedID to the component value (a pointer) and its owner.
func (s *Storage) Lookup(tid TypedID) (any, EntityID, bool) {
	st, ok := s.stores[tid.Type]
	if !ok {
		return nil, 0, false
	}
	return st.get(tid.ID)
}

func (s *Storage) Contains(tid TypedID) bool {
	_, _, ok := s.Lookup(tid)
	return ok
}

// Remove unregisters the component and journals it as removed. Returns false
// for stale ids, which are not journaled.
func (s *Storage) Remove(tid TypedID) bool {
	st, ok := s.stores[tid.Type]
	if !ok || !st.remove(tid.ID) {
		return false
	}
	s.count--
	s.removed = append(s.removed, tid)
	return true
}

// Each visits every live component, type by type in registration order.
func (s *Storage) Each(fn func(tid TypedID, owner EntityID, c any)) {
	for _, t := range s.order {
		s.stores[t].each(func(id ComponentID, owner EntityID, c any) {
			fn(TypedID{Type: t, ID: id}, owner, c)
		})
	}
}

// CountOf returns the number of live components of the given type.
func (s *Storage) CountOf(t reflect.Type) int {
	st, ok := s.stores[t]
	if !ok {
		return 0
	}
	return st.len()
}

func (s *Storage) Len() int { return s.count }

// TakeFresh returns and clears the ids registered since the last call.
func (s *Storage) TakeFresh() []TypedID {
	f := s.fresh
	s.fresh = nil
	return f
}

// TakeRemoved returns and clears the ids removed since the last call.
func (s *Storage) TakeRemoved() []TypedID {
	r := s.removed
	s.removed = nil
	return r
}

// PendingRemoved reports how many removals are waiting for the next sync.
func (s *Storage) PendingRemoved() int { return len(s.removed) }
