package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker fails fast once a dependency has failed failureThreshold
// times in a row, and probes it again after timeout.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	openedAt         time.Time
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	now              func() time.Time
	onStateChange    func(from, to State)
}

func New(failureThreshold, successThreshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		now:              time.Now,
	}
}

// OnStateChange registers a callback invoked (outside the lock) on every transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	switch cb.state {
	case StateClosed, StateHalfOpen:
		cb.mu.Unlock()
		return true
	}
	if cb.now().Sub(cb.openedAt) <= cb.timeout {
		cb.mu.Unlock()
		return false
	}
	from := cb.transition(StateHalfOpen)
	cb.mu.Unlock()
	cb.fire(from, StateHalfOpen)
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			from := cb.transition(StateClosed)
			cb.mu.Unlock()
			cb.fire(from, StateClosed)
			return
		}
	case StateClosed:
		cb.failures = 0
	}
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures < cb.failureThreshold {
			cb.mu.Unlock()
			return
		}
	case StateOpen:
		cb.mu.Unlock()
		return
	}
	from := cb.transition(StateOpen)
	cb.openedAt = cb.now()
	cb.mu.Unlock()
	cb.fire(from, StateOpen)
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// transition resets the counters and returns the previous state. Caller holds mu.
func (cb *CircuitBreaker) transition(to State) State {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	return from
}

func (cb *CircuitBreaker) fire(from, to State) {
	cb.mu.Lock()
	fn := cb.onStateChange
	cb.mu.Unlock()
	if fn != nil && from != to {
		fn(from, to)
	}
}
