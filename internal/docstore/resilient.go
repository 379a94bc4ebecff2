package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ticketdesk/internal/observability/metrics"
	"ticketdesk/internal/reliability/circuitbreaker"
	"ticketdesk/internal/reliability/retry"
)

// Resilient decorates a Store with retries of ErrUnavailable failures, a
// circuit breaker that fails fast while the backend is down, and per-call
// metrics. Add is not retried: a retry after an ambiguous failure could create
// a second document.
type Resilient struct {
	next    Store
	retry   *retry.Config
	breaker *circuitbreaker.CircuitBreaker
	log     zerolog.Logger
}

func NewResilient(next Store, cfg *retry.Config, breaker *circuitbreaker.CircuitBreaker, log zerolog.Logger) *Resilient {
	c := *cfg
	c.Retryable = func(err error) bool { return errors.Is(err, ErrUnavailable) }
	log = log.With().Str("component", "docstore").Logger()
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		metrics.SetBreakerState(int(to))
		log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("store circuit breaker changed state")
	})
	return &Resilient{next: next, retry: &c, breaker: breaker, log: log}
}

func call[T any](ctx context.Context, r *Resilient, op, collection string, retried bool, fn retry.Func[T]) (T, error) {
	guarded := func(ctx context.Context) (T, error) {
		var zero T
		if !r.breaker.AllowRequest() {
			return zero, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		v, err := fn(ctx)
		switch {
		case errors.Is(err, ErrUnavailable):
			r.breaker.RecordFailure()
		case err == nil, errors.Is(err, ErrNotFound):
			r.breaker.RecordSuccess()
		}
		return v, err
	}

	var (
		v   T
		err error
	)
	if retried {
		v, err = retry.Do(ctx, r.retry, r.log, op+" "+collection, guarded)
	} else {
		v, err = guarded(ctx)
	}
	metrics.ObserveStoreOp(op, collection, result(err))
	return v, err
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (r *Resilient) Get(ctx context.Context, collection, id string) (Document, error) {
	return call(ctx, r, "get", collection, true, func(ctx context.Context) (Document, error) {
		return r.next.Get(ctx, collection, id)
	})
}

func (r *Resilient) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	return call(ctx, r, "query", collection, true, func(ctx context.Context) ([]Document, error) {
		return r.next.Query(ctx, collection, field, value)
	})
}

func (r *Resilient) All(ctx context.Context, collection string) ([]Document, error) {
	return call(ctx, r, "all", collection, true, func(ctx context.Context) ([]Document, error) {
		return r.next.All(ctx, collection)
	})
}

func (r *Resilient) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := call(ctx, r, "set", collection, true, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Set(ctx, collection, id, fields)
	})
	return err
}

func (r *Resilient) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := call(ctx, r, "update", collection, true, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Update(ctx, collection, id, fields)
	})
	return err
}

func (r *Resilient) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	return call(ctx, r, "add", collection, false, func(ctx context.Context) (string, error) {
		return r.next.Add(ctx, collection, fields)
	})
}

func (r *Resilient) Subscribe(ctx context.Context, collection, field, value string, fn OnChange) (func(), error) {
	return call(ctx, r, "subscribe", collection, true, func(ctx context.Context) (func(), error) {
		return r.next.Subscribe(ctx, collection, field, value, fn)
	})
}
