package tickets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
)

// fakeUsers is an in-memory UserSource that can fail, delay or block lookups
// per id and records how many lookups ran and how many overlapped.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	errs  map[string]error
	gates map[string]chan struct{}
	delay time.Duration
	calls map[string]int

	inflight    atomic.Int32
	maxInflight atomic.Int32
	started     chan string
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{
		users:   map[string]*models.User{},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		calls:   map[string]int{},
		started: make(chan string, 256),
	}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[id]++
	gate := f.gates[id]
	err := f.errs[id]
	u := f.users[id]
	f.mu.Unlock()
	f.started <- id

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (f *fakeUsers) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeUsers) callsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type failingReader struct{ err error }

func (r failingReader) All(context.Context, string) ([]docstore.Document, error) {
	return nil, r.err
}

func (r failingReader) Query(context.Context, string, string, string) ([]docstore.Document, error) {
	return nil, r.err
}

type countingLister struct {
	mu      sync.Mutex
	tickets []models.Ticket
	calls   int
	err     error
	gate    chan struct{}
}

func (l *countingLister) List(ctx context.Context) ([]models.Ticket, error) {
	l.mu.Lock()
	l.calls++
	gate := l.gate
	out := append([]models.Ticket(nil), l.tickets...)
	err := l.err
	l.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return out, err
}

func (l *countingLister) set(tickets ...models.Ticket) {
	l.mu.Lock()
	l.tickets = tickets
	l.mu.Unlock()
}

func (l *countingLister) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

var errBackend = errors.New("backend down")

func seedUsers(ctx context.Context, db docstore.Store, users ...models.User) error {
	for _, u := range users {
		f := u.Fields()
		if u.RawRole != "" {
			f[models.FieldRole] = u.RawRole
		}
		if err := db.Set(ctx, models.CollectionUsers, u.ID, f); err != nil {
			return err
		}
	}
	return nil
}

func seedTickets(ctx context.Context, db docstore.Store, tickets ...models.Ticket) error {
	for _, t := range tickets {
		if err := db.Set(ctx, models.CollectionTickets, t.ID, t.Fields()); err != nil {
			return err
		}
	}
	return nil
}
