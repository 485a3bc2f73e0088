package payload

import (
	"sync"
	"testing"
)

func TestAllocator_Next(t *testing.T) {
	a := NewAllocator()

	if id := a.Next(); id != 1 {
		t.Errorf("expected first id 1, got %d", id)
	}
	if id := a.Next(); id != 2 {
		t.Errorf("expected second id 2, got %d", id)
	}
	if cur := a.Current(); cur != 2 {
		t.Errorf("expected current 2, got %d", cur)
	}
}

func TestAllocator_Reconcile(t *testing.T) {
	t.Run("raises fresh counter above high water mark", func(t *testing.T) {
		a := NewAllocator()
		a.Reconcile(123456789)

		if id := a.Next(); id != 123456790 {
			t.Errorf("expected 123456790, got %d", id)
		}
	})

	t.Run("never lowers the counter", func(t *testing.T) {
		a := NewAllocator()
		a.Reconcile(100)
		a.Reconcile(50)

		if id := a.Next(); id != 101 {
			t.Errorf("expected 101, got %d", id)
		}
	})

	t.Run("no-op when counter already ahead", func(t *testing.T) {
		a := NewAllocator()
		for i := 0; i < 10; i++ {
			a.Next()
		}
		a.Reconcile(5)

		if id := a.Next(); id != 11 {
			t.Errorf("expected 11, got %d", id)
		}
	})
}

func TestAllocator_ConcurrentNext(t *testing.T) {
	const (
		goroutines = 16
		perWorker  = 1000
	)

	a := NewAllocator()
	seen := make([]map[uint64]bool, goroutines)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids := make(map[uint64]bool, perWorker)
			for i := 0; i < perWorker; i++ {
				ids[a.Next()] = true
			}
			seen[g] = ids
		}(g)
	}
	wg.Wait()

	all := make(map[uint64]bool)
	for _, ids := range seen {
		for id := range ids {
			if all[id] {
				t.Fatalf("id %d issued twice", id)
			}
			all[id] = true
		}
	}

	if len(all) != goroutines*perWorker {
		t.Errorf("expected %d unique ids, got %d", goroutines*perWorker, len(all))
	}
	if cur := a.Current(); cur != goroutines*perWorker {
		t.Errorf("expected counter %d, got %d", goroutines*perWorker, cur)
	}
}
