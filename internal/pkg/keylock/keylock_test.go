package keylock

import (
	"sync"
	"testing"
)

func TestLockSerializesSameKey(t *testing.T) {
	kl := New()

	const workers = 32
	const perWorker = 100

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				kl.Lock("session-a")
				counter++
				kl.Unlock("session-a")
			}
		}()
	}
	wg.Wait()

	if counter != workers*perWorker {
		t.Errorf("counter = %d, want %d", counter, workers*perWorker)
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	kl := New()

	kl.Lock("session-a")
	done := make(chan struct{})
	go func() {
		kl.Lock("session-b")
		kl.Unlock("session-b")
		close(done)
	}()
	<-done
	kl.Unlock("session-a")
}

func TestEntriesAreReclaimed(t *testing.T) {
	kl := New()

	kl.Lock("session-a")
	kl.Unlock("session-a")

	kl.mu.Lock()
	n := len(kl.locks)
	kl.mu.Unlock()

	if n != 0 {
		t.Errorf("lock table has %d entries after release, want 0", n)
	}
}

func TestUnlockUnheldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unlock of unheld key")
		}
	}()
	New().Unlock("never-locked")
}
