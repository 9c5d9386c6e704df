package topology

import (
	"maps"
	"slices"
)

// Store holds mounted views keyed by ID. The Repository serialises every
// call, so implementations need no locking of their own.
type Store interface {
	GetView(id ViewID) (*View, bool)
	SetView(v *View)
	// TakeView deletes the view with the given ID and returns it.
	TakeView(id ViewID) (*View, bool)
	// ListViewIDs returns the stored IDs in lexical order.
	ListViewIDs() []ViewID
	Len() int
}

// InMemoryStore keeps views in a map.
type InMemoryStore struct {
	views map[ViewID]*View
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{views: make(map[ViewID]*View)}
}

func (s *InMemoryStore) GetView(id ViewID) (*View, bool) {
	v, ok := s.views[id]
	return v, ok
}

// SetView stores v under v.ID, replacing any view with that ID. A nil view
// or one without an ID is ignored.
func (s *InMemoryStore) SetView(v *View) {
	if v == nil || v.ID == "" {
		return
	}
	s.views[v.ID] = v
}

func (s *InMemoryStore) TakeView(id ViewID) (*View, bool) {
	v, ok := s.views[id]
	if ok {
		delete(s.views, id)
	}
	return v, ok
}

func (s *InMemoryStore) ListViewIDs() []ViewID {
	return slices.Sorted(maps.Keys(s.views))
}

func (s *InMemoryStore) Len() int {
	return len(s.views)
}
