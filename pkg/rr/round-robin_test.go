package rr

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNext(t *testing.T) {
	var list atomic.Pointer[[]string]
	r := New(&list)

	if _, ok := r.Next(); ok {
		t.Fatal("next on nil list")
	}

	items := []string{"a", "b", "c"}
	list.Store(&items)

	for i, want := range []string{"a", "b", "c", "a"} {
		got, ok := r.Next()
		if !ok || got != want {
			t.Fatalf("step %d: got %q, want %q", i, got, want)
		}
	}

	swapped := []string{"x"}
	list.Store(&swapped)
	if got, _ := r.Next(); got != "x" || r.Count() != 1 {
		t.Fatalf("after swap got %q, count %d", got, r.Count())
	}
}

func TestNextConcurrent(t *testing.T) {
	var list atomic.Pointer[[]string]
	items := []string{"a", "b"}
	list.Store(&items)
	r := New(&list)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[string]int{}
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := r.Next()
			mu.Lock()
			counts[v]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if counts["a"] != 50 || counts["b"] != 50 {
		t.Fatalf("uneven distribution: %v", counts)
	}
}
