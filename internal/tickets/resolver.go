// Package tickets turns raw ticket documents into display views: it resolves
// user references to names, collects facet values for filter choices, and
// filters the resolved set.
package tickets

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"ticketdesk/internal/models"
	"ticketdesk/internal/observability/metrics"
	"ticketdesk/internal/observability/tracing"
)

const DefaultLookupTimeout = 5 * time.Second

// UserSource looks up a single user. A missing user is (nil, nil).
type UserSource interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Placeholder is the name shown for an empty or unresolvable user reference.
func Placeholder(role models.Role) string {
	return "Unknown " + role.String()
}

// Resolver denormalizes tickets by looking up creator and assignee names.
// A Resolver is safe for concurrent use; concurrent lookups of the same user
// id, within or across batches, share one store call.
type Resolver struct {
	users   UserSource
	log     zerolog.Logger
	limit   int
	timeout time.Duration
	lookups singleflight.Group
}

// NewResolver returns a Resolver. limit caps in-flight lookups per batch (0 =
// no cap); timeout bounds each store lookup.
func NewResolver(users UserSource, log zerolog.Logger, limit int, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Resolver{
		users:   users,
		log:     log.With().Str("component", "resolver").Logger(),
		limit:   limit,
		timeout: timeout,
	}
}

// Resolve returns one view per input ticket, in input order. All lookups are
// dispatched concurrently and Resolve returns only after every one of them has
// settled. A failed or missing lookup degrades that one name to its
// placeholder; only cancellation of ctx fails the batch.
func (r *Resolver) Resolve(ctx context.Context, batch []models.Ticket) ([]models.TicketView, error) {
	ctx, span := tracing.Tracer().Start(ctx, "tickets.Resolve",
		trace.WithAttributes(attribute.Int("tickets", len(batch))))
	defer span.End()
	start := time.Now()

	views := make([]models.TicketView, len(batch))
	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	// Each goroutine owns exactly one name field of one view.
	for i, t := range batch {
		i, t := i, t
		views[i] = models.TicketView{
			ID:           t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Status:       t.Status,
			CreatedBy:    t.CreatedBy,
			AssignedTo:   t.AssignedTo,
			ClientName:   Placeholder(models.RoleClient),
			EmployeeName: Placeholder(models.RoleEmployee),
		}
		if t.CreatedBy != "" {
			g.Go(func() error {
				views[i].ClientName = r.name(ctx, t.CreatedBy, models.RoleClient)
				return nil
			})
		}
		if t.AssignedTo != "" {
			g.Go(func() error {
				views[i].EmployeeName = r.name(ctx, t.AssignedTo, models.RoleEmployee)
				return nil
			})
		}
	}
	_ = g.Wait()
	metrics.ObserveResolverBatch(time.Since(start))

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return views, nil
}

// name resolves one reference, falling back to the placeholder for role.
func (r *Resolver) name(ctx context.Context, id string, role models.Role) string {
	if name, ok := r.lookup(ctx, id, role.String()); ok {
		return name
	}
	return Placeholder(role)
}

// lookup returns the display name of user id. label tags logs and metrics.
func (r *Resolver) lookup(ctx context.Context, id, label string) (string, bool) {
	// The shared lookup must not be cut short by whichever caller started it.
	ch := r.lookups.DoChan(id, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.users.GetByID(lctx, id)
	})

	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		if res.Err != nil {
			metrics.ObserveLookup(label, "error")
			r.log.Warn().Err(res.Err).Str("user_id", id).Str("role", label).Msg("user lookup failed")
			return "", false
		}
		u, _ := res.Val.(*models.User)
		if u == nil || u.Name == "" {
			metrics.ObserveLookup(label, "miss")
			r.log.Debug().Str("user_id", id).Str("role", label).Msg("user not found")
			return "", false
		}
		metrics.ObserveLookup(label, "hit")
		return u.Name, true
	}
}

// Names resolves a set of user ids concurrently. Ids that are empty, missing
// or fail to resolve are absent from the result.
func (r *Resolver) Names(ctx context.Context, ids []string) (map[string]string, error) {
	var (
		mu  sync.Mutex
		g   errgroup.Group
		out = make(map[string]string, len(ids))
	)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		id := id
		g.Go(func() error {
			if name, ok := r.lookup(ctx, id, "author"); ok {
				mu.Lock()
				out[id] = name
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
