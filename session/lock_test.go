package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/session"
)

func TestLocker_SerializesSameID(t *testing.T) {
	locker := session.NewLocker()
	ctx := context.Background()

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "s1")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			defer unlock()

			n := active.Add(1)
			for {
				m := maxActive.Load()
				if n <= m || maxActive.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxActive.Load(); got != 1 {
		t.Errorf("max concurrent holders = %d, want 1", got)
	}
	if got := locker.Active(); got != 0 {
		t.Errorf("Active() = %d after all released, want 0", got)
	}
}

func TestLocker_DifferentIDsDoNotBlock(t *testing.T) {
	locker := session.NewLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock(a): %v", err)
	}
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := locker.Lock(ctx, "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestLocker_ContextCancelled(t *testing.T) {
	locker := session.NewLocker()

	unlock, err := locker.Lock(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := locker.Lock(ctx, "s1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock with expired ctx = %v, want DeadlineExceeded", err)
	}

	unlock()
	unlock()

	if got := locker.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
}
