package core

import (
	"sync"
	"testing"
)

// ============================================================================
// Test: lockTable
// ============================================================================

func TestLockTable_EvictsReleasedKeys(t *testing.T) {
	lt := newLockTable()

	unlockA := lt.acquire("account:a")
	unlockB := lt.acquire("snapshot:a:2025-03-10")
	if got := len(lt.locks); got != 2 {
		t.Fatalf("held keys = %d, want 2", got)
	}

	unlockA()
	unlockB()
	if got := len(lt.locks); got != 0 {
		t.Errorf("held keys after release = %d, want 0", got)
	}
}

func TestLockTable_KeptWhileWaitersRemain(t *testing.T) {
	lt := newLockTable()

	unlock := lt.acquire("account:a")

	acquired := make(chan func())
	go func() { acquired <- lt.acquire("account:a") }()

	// Wait for the second holder to register interest in the key.
	for {
		lt.mu.Lock()
		refs := lt.locks["account:a"].refs
		lt.mu.Unlock()
		if refs == 2 {
			break
		}
	}

	unlock()
	if got := len(lt.locks); got != 1 {
		t.Errorf("held keys with waiter pending = %d, want 1", got)
	}

	(<-acquired)()
	if got := len(lt.locks); got != 0 {
		t.Errorf("held keys after last release = %d, want 0", got)
	}
}

func TestLockTable_MutualExclusion(t *testing.T) {
	lt := newLockTable()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lt.acquire("account:a")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if got := len(lt.locks); got != 0 {
		t.Errorf("held keys after all releases = %d, want 0", got)
	}
}
