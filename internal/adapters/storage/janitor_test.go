package storage

import (
	"context"
	"testing"
	"time"

	memclock "github.com/cardshare/digital-card-api/internal/adapters/memory/clock"
	memidempotency "github.com/cardshare/digital-card-api/internal/adapters/memory/idempotency"
	"github.com/cardshare/digital-card-api/internal/domain"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

func TestPurgeExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memidempotency.NewStore()
	clk := memclock.NewManualClock(time.Unix(10_000, 0).UTC())

	old := idempotencyport.Fingerprint{Key: "old", Subject: domain.SubjectID("sub"), Method: "PATCH", Route: "/profiles/me"}
	recent := old
	recent.Key = "recent"
	if err := store.Put(ctx, old, idempotencyport.Record{CreatedAt: clk.Now().Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("Put old err=%v", err)
	}
	if err := store.Put(ctx, recent, idempotencyport.Record{CreatedAt: clk.Now().Add(-time.Minute)}); err != nil {
		t.Fatalf("Put recent err=%v", err)
	}

	n, err := PurgeExpired(ctx, store, clk, time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired n=%d err=%v, want 1", n, err)
	}
	if _, ok, _ := store.Get(ctx, old); ok {
		t.Fatalf("old record survived purge")
	}
	if _, ok, _ := store.Get(ctx, recent); !ok {
		t.Fatalf("recent record was purged")
	}

	clk.Advance(2 * time.Hour)
	if n, err := PurgeExpired(ctx, store, clk, time.Hour); err != nil || n != 1 {
		t.Fatalf("second PurgeExpired n=%d err=%v, want 1", n, err)
	}
}

func TestRunIdempotencyJanitor_SweepsUntilCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	store := memidempotency.NewStore()
	clk := memclock.NewManualClock(time.Unix(10_000, 0).UTC())

	fp := idempotencyport.Fingerprint{Key: "old", Subject: domain.SubjectID("sub"), Method: "PATCH", Route: "/profiles/me"}
	if err := store.Put(ctx, fp, idempotencyport.Record{CreatedAt: clk.Now().Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("Put err=%v", err)
	}

	done := make(chan error, 1)
	go func() { done <- RunIdempotencyJanitor(ctx, store, clk, time.Hour, time.Millisecond, nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok, _ := store.Get(context.Background(), fp); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("janitor did not purge the expired record")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunIdempotencyJanitor err=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("janitor did not stop after cancel")
	}
}
