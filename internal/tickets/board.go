package tickets

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"ticketdesk/internal/models"
	"ticketdesk/internal/observability/metrics"
)

const (
	refreshTimeout = 30 * time.Second
	// maxRefreshRounds bounds how often a reader re-runs a refresh that was
	// overtaken by invalidations.
	maxRefreshRounds = 3
)

// TicketLister lists every ticket in the store.
type TicketLister interface {
	List(ctx context.Context) ([]models.Ticket, error)
}

// Snapshot is one resolved view of all tickets with the facets taken at the
// same time. Snapshots are immutable once published.
type Snapshot struct {
	Views   []models.TicketView
	Options FilterOptions
	TakenAt time.Time

	gen uint64 // board generation the tickets were listed under
}

// Board caches the manager's resolved ticket set. Readers always see a
// complete snapshot; concurrent refreshes collapse into one.
type Board struct {
	tickets  TicketLister
	docs     DocumentReader
	resolver *Resolver
	ttl      time.Duration
	log      zerolog.Logger

	current atomic.Pointer[Snapshot]
	gen     atomic.Uint64
	refresh singleflight.Group
	now     func() time.Time
}

// NewBoard returns a Board. A ttl of zero disables caching: every read
// refreshes.
func NewBoard(tickets TicketLister, docs DocumentReader, resolver *Resolver, ttl time.Duration, log zerolog.Logger) *Board {
	return &Board{
		tickets:  tickets,
		docs:     docs,
		resolver: resolver,
		ttl:      ttl,
		log:      log.With().Str("component", "board").Logger(),
		now:      time.Now,
	}
}

// Snapshot returns the cached snapshot while it is fresh, otherwise a new one.
func (b *Board) Snapshot(ctx context.Context) (*Snapshot, error) {
	if cur := b.current.Load(); cur != nil && cur.gen == b.gen.Load() && b.now().Sub(cur.TakenAt) < b.ttl {
		return cur, nil
	}
	return b.Refresh(ctx)
}

// Refresh rebuilds the snapshot. Callers arriving while a refresh is running
// wait for it instead of starting another, unless the board was invalidated
// after that refresh listed its tickets; then they run one more. A failed
// refresh leaves the previous snapshot in place.
func (b *Board) Refresh(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	for round := 0; round < maxRefreshRounds; round++ {
		want := b.gen.Load()
		ch := b.refresh.DoChan("board", b.rebuild(ctx))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			snap = res.Val.(*Snapshot)
		}
		if snap.gen >= want {
			return snap, nil
		}
	}
	b.log.Warn().Msg("board kept changing during refresh, serving newest snapshot")
	return snap, nil
}

func (b *Board) rebuild(ctx context.Context) func() (any, error) {
	return func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		gen := b.gen.Load()
		snap, err := b.load(rctx)
		if err != nil {
			metrics.ObserveBoardRefresh("error")
			b.log.Error().Err(err).Msg("board refresh failed")
			return nil, err
		}
		snap.gen = gen
		b.current.Store(snap)
		metrics.ObserveBoardRefresh("ok")
		b.log.Debug().Int("tickets", len(snap.Views)).Uint64("gen", gen).Msg("board refreshed")
		return snap, nil
	}
}

// Invalidate marks the current snapshot stale. The next read, including one
// that joins a refresh already under way, sees writes made before the call.
func (b *Board) Invalidate() {
	b.gen.Add(1)
}

func (b *Board) load(ctx context.Context) (*Snapshot, error) {
	taken := b.now()
	list, err := b.tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	views, err := b.resolver.Resolve(ctx, list)
	if err != nil {
		return nil, err
	}
	opts, err := CollectFilterOptions(ctx, b.docs)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Views: views, Options: opts, TakenAt: taken}, nil
}
