package dispatchguard

import (
	"context"
	"testing"
	"time"
)

func TestAcquireIsExclusive(t *testing.T) {
	g := NewInMemory()
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "R-ABC:artifact", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	ok, err = g.Acquire(ctx, "R-ABC:artifact", time.Minute)
	if err != nil {
		t.Fatalf("second acquire errored: %v", err)
	}
	if ok {
		t.Fatal("second acquire must fail while held")
	}

	// A different effect key for the same registration is independent.
	ok, err = g.Acquire(ctx, "R-ABC:ledger", time.Minute)
	if err != nil || !ok {
		t.Fatalf("independent key acquire failed: ok=%v err=%v", ok, err)
	}
}

func TestReleaseFreesKey(t *testing.T) {
	g := NewInMemory()
	ctx := context.Background()

	if ok, _ := g.Acquire(ctx, "k", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	if err := g.Release(ctx, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := g.Acquire(ctx, "k", time.Minute); !ok {
		t.Fatal("acquire after release must succeed")
	}
}

func TestExpiredHoldIsReclaimed(t *testing.T) {
	g := NewInMemory()
	now := time.Now()
	g.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := g.Acquire(ctx, "k", time.Second); !ok {
		t.Fatal("acquire failed")
	}
	now = now.Add(2 * time.Second)
	if ok, _ := g.Acquire(ctx, "k", time.Second); !ok {
		t.Fatal("expired hold must be reclaimable")
	}
}
