package topology

import "sync"

// Repository defines the concurrency-safe contract for tracking mounted views.
type Repository interface {
	// Add registers a view under its ID. An existing view with the same ID
	// is replaced.
	Add(v *View)

	// Get returns the view with the given ID.
	Get(id ViewID) (*View, bool)

	// Remove unregisters a view and returns it so the caller can release its
	// timer. ok is false if the view was not mounted.
	Remove(id ViewID) (v *View, ok bool)

	// IDs returns the mounted view IDs in lexical order.
	IDs() []ViewID

	// ActiveViewCount returns the number of mounted views.
	// Used for metrics.
	ActiveViewCount() int
}

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Add implements Repository.Add.
func (r *InMemoryRepository) Add(v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetView(v)
}

// Get implements Repository.Get.
func (r *InMemoryRepository) Get(id ViewID) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetView(id)
}

// Remove implements Repository.Remove.
func (r *InMemoryRepository) Remove(id ViewID) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.TakeView(id)
}

// IDs implements Repository.IDs.
func (r *InMemoryRepository) IDs() []ViewID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.ListViewIDs()
}

// ActiveViewCount implements Repository.ActiveViewCount.
func (r *InMemoryRepository) ActiveViewCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Len()
}
