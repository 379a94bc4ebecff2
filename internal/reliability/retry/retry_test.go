package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errTransient = errors.New("transient")

func fast() *Config {
	return &Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fast(), zerolog.Nop(), "op", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	if err != nil || v != 42 || calls != 3 {
		t.Fatalf("v=%d err=%v calls=%d", v, err, calls)
	}
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast(), zerolog.Nop(), "op", func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	if !errors.Is(err, errTransient) || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDo_NonRetryable(t *testing.T) {
	cfg := fast()
	cfg.Retryable = func(err error) bool { return !errors.Is(err, errTransient) }
	calls := 0
	_, err := Do(context.Background(), cfg, zerolog.Nop(), "op", func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	if !errors.Is(err, errTransient) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fast()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	_, err := Do(ctx, cfg, zerolog.Nop(), "op", func(context.Context) (int, error) {
		cancel()
		return 0, errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := &Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2}
	if got := Backoff(0, cfg); got != 100*time.Millisecond {
		t.Errorf("Backoff(0) = %v", got)
	}
	if got := Backoff(2, cfg); got != 400*time.Millisecond {
		t.Errorf("Backoff(2) = %v", got)
	}
	if got := Backoff(10, cfg); got != time.Second {
		t.Errorf("Backoff(10) = %v", got)
	}
}
