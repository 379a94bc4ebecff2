package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Used for local runs (STORE_DRIVER=memory) and tests.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string]map[string]any
	subs  map[int]*memorySub
	next  int
}

type memorySub struct {
	collection, field, value string
	fn                       OnChange
	mu                       sync.Mutex // serialises deliveries
}

func NewMemory() *Memory {
	return &Memory{
		colls: map[string]map[string]map[string]any{},
		subs:  map[int]*memorySub{},
	}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.colls[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(f)}, nil
}

func (m *Memory) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(collection, func(f map[string]any) bool { return matches(f, field, value) }), nil
}

func (m *Memory) All(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(collection, func(map[string]any) bool { return true }), nil
}

// scan returns matching documents sorted by id so results are stable. Caller holds mu.
func (m *Memory) scan(collection string, keep func(map[string]any) bool) []Document {
	out := []Document{}
	for id, f := range m.colls[collection] {
		if keep(f) {
			out = append(out, Document{ID: id, Fields: cloneFields(f)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	c, ok := m.colls[collection]
	if !ok {
		c = map[string]map[string]any{}
		m.colls[collection] = c
	}
	c[id] = cloneFields(fields)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	cur, ok := m.colls[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		cur[k] = v
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Subscribe(ctx context.Context, collection, field, value string, fn OnChange) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &memorySub{collection: collection, field: field, value: value, fn: fn}
	m.mu.Lock()
	key := m.next
	m.next++
	m.subs[key] = s
	m.mu.Unlock()

	m.deliver(s)

	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, key)
			m.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop, nil
}

func (m *Memory) notify(collection string) {
	m.mu.RLock()
	var hit []*memorySub
	for _, s := range m.subs {
		if s.collection == collection {
			hit = append(hit, s)
		}
	}
	m.mu.RUnlock()
	for _, s := range hit {
		m.deliver(s)
	}
}

func (m *Memory) deliver(s *memorySub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.mu.RLock()
	docs := m.scan(s.collection, func(f map[string]any) bool { return matches(f, s.field, s.value) })
	m.mu.RUnlock()
	s.fn(docs, nil)
}
