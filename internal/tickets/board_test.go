package tickets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
)

func newTestBoard(t *testing.T, ttl time.Duration) (*Board, *countingLister) {
	t.Helper()
	ctx := context.Background()
	db := docstore.NewMemory()
	if err := seedUsers(ctx, db, models.User{ID: "u1", Name: "Alice", Role: models.RoleClient}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	lister := &countingLister{tickets: []models.Ticket{{ID: "t1", Status: "open", CreatedBy: "u1"}}}
	users := newFakeUsers(models.User{ID: "u1", Name: "Alice"})
	b := NewBoard(lister, db, NewResolver(users, zerolog.Nop(), 0, time.Second), ttl, zerolog.Nop())
	return b, lister
}

func TestBoard_CachesWithinTTL(t *testing.T) {
	b, lister := newTestBoard(t, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	first, err := b.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(first.Views) != 1 || first.Views[0].ClientName != "Alice" {
		t.Fatalf("unexpected snapshot %+v", first.Views)
	}
	if c := first.Options.Clients; len(c) != 2 || c[0] != "All" || c[1] != "Alice" {
		t.Errorf("client options = %v", first.Options.Clients)
	}

	second, _ := b.Snapshot(context.Background())
	if second != first || lister.count() != 1 {
		t.Errorf("expected cached snapshot, lister called %d times", lister.count())
	}

	now = now.Add(2 * time.Minute)
	if _, err := b.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if lister.count() != 2 {
		t.Errorf("expected refresh after ttl, lister called %d times", lister.count())
	}
}

func TestBoard_InvalidateForcesRefresh(t *testing.T) {
	b, lister := newTestBoard(t, time.Hour)
	if _, err := b.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	b.Invalidate()
	if _, err := b.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if lister.count() != 2 {
		t.Errorf("expected 2 loads, got %d", lister.count())
	}
}

func TestBoard_ConcurrentReadsShareOneRefresh(t *testing.T) {
	b, lister := newTestBoard(t, time.Hour)
	gate := make(chan struct{})
	lister.gate = gate

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Snapshot(context.Background()); err != nil {
				t.Errorf("Snapshot: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if n := lister.count(); n != 1 {
		t.Errorf("expected one shared load, got %d", n)
	}
}

func TestBoard_RefreshErrorSurfaces(t *testing.T) {
	b, lister := newTestBoard(t, time.Hour)
	lister.err = errBackend
	if _, err := b.Snapshot(context.Background()); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	lister.err = nil
	snap, err := b.Snapshot(context.Background())
	if err != nil || len(snap.Views) != 1 {
		t.Fatalf("expected recovery, got %v %v", snap, err)
	}
}

func TestBoard_ReadAfterInvalidateSkipsInFlightRefresh(t *testing.T) {
	b, lister := newTestBoard(t, time.Hour)
	gate := make(chan struct{})
	lister.gate = gate

	early := make(chan error, 1)
	go func() {
		_, err := b.Snapshot(context.Background())
		early <- err
	}()
	for lister.count() == 0 {
		time.Sleep(time.Millisecond)
	}

	// the ticket changes while the first refresh is still listing
	lister.set(models.Ticket{ID: "t1", Status: "closed", CreatedBy: "u1"})
	b.Invalidate()

	type result struct {
		snap *Snapshot
		err  error
	}
	late := make(chan result, 1)
	go func() {
		snap, err := b.Snapshot(context.Background())
		late <- result{snap, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	if err := <-early; err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	got := <-late
	if got.err != nil {
		t.Fatalf("Snapshot after invalidate: %v", got.err)
	}
	if len(got.snap.Views) != 1 || got.snap.Views[0].Status != "closed" {
		t.Fatalf("read after write saw %+v", got.snap.Views)
	}
	if n := lister.count(); n != 2 {
		t.Errorf("expected a second load, got %d", n)
	}

	again, _ := b.Snapshot(context.Background())
	if again != got.snap {
		t.Error("fresh snapshot should be served from cache")
	}
}
