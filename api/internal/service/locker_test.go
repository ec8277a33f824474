package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"checkout/api/internal/infra/cache"

	"github.com/brianvoe/gofakeit/v7"
)

func TestLocker(t *testing.T) {
	s := NewLockerService(cache.InitStorage())
	key := gofakeit.UUID()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryLock(key) {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	if acquired.Load() != 1 || !s.IsLocked(key) {
		t.Fatalf("acquired %d times", acquired.Load())
	}

	s.Unlock(key)
	if s.IsLocked(key) || !s.TryLock(key) {
		t.Fatal("unlock failed")
	}
}
