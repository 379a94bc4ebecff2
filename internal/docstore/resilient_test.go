package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ticketdesk/internal/reliability/circuitbreaker"
	"ticketdesk/internal/reliability/retry"
)

// flakyStore fails the first failures calls of Get/Add with ErrUnavailable.
type flakyStore struct {
	Store
	failures int
	calls    int
}

func (f *flakyStore) Get(ctx context.Context, collection, id string) (Document, error) {
	f.calls++
	if f.calls <= f.failures {
		return Document{}, fmt.Errorf("%w: connection reset", ErrUnavailable)
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *flakyStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("%w: timeout", ErrUnavailable)
	}
	return f.Store.Add(ctx, collection, fields)
}

func fastRetry() *retry.Config {
	return &retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2}
}

func TestResilient_RetriesUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Set(ctx, "users", "u1", map[string]any{"name": "Alice"})
	f := &flakyStore{Store: mem, failures: 2}
	r := NewResilient(f, fastRetry(), circuitbreaker.New(10, 1, time.Minute), zerolog.Nop())

	d, err := r.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if name, _ := d.String("name"); name != "Alice" || f.calls != 3 {
		t.Errorf("name=%q calls=%d", name, f.calls)
	}
}

func TestResilient_NotFoundIsNotRetried(t *testing.T) {
	mem := NewMemory()
	f := &flakyStore{Store: mem}
	r := NewResilient(f, fastRetry(), circuitbreaker.New(10, 1, time.Minute), zerolog.Nop())
	if _, err := r.Get(context.Background(), "users", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d", f.calls)
	}
}

func TestResilient_AddIsNotRetried(t *testing.T) {
	f := &flakyStore{Store: NewMemory(), failures: 1}
	r := NewResilient(f, fastRetry(), circuitbreaker.New(10, 1, time.Minute), zerolog.Nop())
	if _, err := r.Add(context.Background(), "Comments", map[string]any{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d", f.calls)
	}
}

func TestResilient_BreakerOpens(t *testing.T) {
	f := &flakyStore{Store: NewMemory(), failures: 1000}
	cb := circuitbreaker.New(3, 1, time.Minute)
	r := NewResilient(f, fastRetry(), cb, zerolog.Nop())

	if _, err := r.Get(context.Background(), "users", "u1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if cb.State() != circuitbreaker.StateOpen {
		t.Fatalf("breaker state = %v", cb.State())
	}
	before := f.calls
	if _, err := r.Get(context.Background(), "users", "u1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable while open, got %v", err)
	}
	if f.calls != before {
		t.Errorf("open breaker must not reach the backend")
	}
}
