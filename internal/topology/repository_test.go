package topology

import (
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryRepository_AddGetRemove(t *testing.T) {
	repo := NewInMemoryRepository()
	v := &View{ID: ViewID("v1")}

	t.Run("add_then_get", func(t *testing.T) {
		repo.Add(v)
		got, ok := repo.Get(v.ID)
		if !ok || got != v {
			t.Fatalf("Get: ok=%v got %p want %p", ok, got, v)
		}
		if n := repo.ActiveViewCount(); n != 1 {
			t.Errorf("ActiveViewCount: got %d want 1", n)
		}
	})

	t.Run("remove_returns_view", func(t *testing.T) {
		got, ok := repo.Remove(v.ID)
		if !ok || got != v {
			t.Fatalf("Remove: ok=%v got %p want %p", ok, got, v)
		}
		if _, ok := repo.Get(v.ID); ok {
			t.Error("view should be gone after Remove")
		}
	})

	t.Run("remove_missing", func(t *testing.T) {
		if _, ok := repo.Remove(v.ID); ok {
			t.Error("second Remove should report not found")
		}
		if n := repo.ActiveViewCount(); n != 0 {
			t.Errorf("ActiveViewCount: got %d want 0", n)
		}
	})
}

func TestInMemoryRepository_IDsSorted(t *testing.T) {
	repo := NewInMemoryRepository()
	for _, id := range []ViewID{"c", "a", "b"} {
		repo.Add(&View{ID: id})
	}
	ids := repo.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("IDs: got %v", ids)
	}
}

func TestNewInMemoryRepositoryWithStore(t *testing.T) {
	store := NewInMemoryStore()
	repo := NewInMemoryRepositoryWithStore(store)
	repo.Add(&View{ID: ViewID("v1")})

	if _, ok := store.GetView(ViewID("v1")); !ok {
		t.Error("injected store should contain view after Add")
	}
}

func TestInMemoryRepository_concurrent(t *testing.T) {
	repo := NewInMemoryRepository()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ViewID(fmt.Sprintf("v%d", i))
			repo.Add(&View{ID: id})
			repo.Get(id)
			if i%2 == 0 {
				repo.Remove(id)
			}
			repo.ActiveViewCount()
		}(i)
	}
	wg.Wait()
	if n := repo.ActiveViewCount(); n != 25 {
		t.Errorf("ActiveViewCount: got %d want 25", n)
	}
}
