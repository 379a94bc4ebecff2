package tickets

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
	"ticketdesk/internal/observability/tracing"
)

// Wildcard is the facet value meaning "no constraint".
const Wildcard = "All"

// DocumentReader is the read side of docstore.Store the collectors need.
type DocumentReader interface {
	All(ctx context.Context, collection string) ([]docstore.Document, error)
	Query(ctx context.Context, collection, field, value string) ([]docstore.Document, error)
}

// CollectDistinct returns the distinct string values of field in collection,
// in first-seen order. Documents without the field, or holding a non-string
// value, are skipped. A non-empty roleFilter reads only documents whose role
// equals it; a client filter also reads the legacy "user" role.
func CollectDistinct(ctx context.Context, db DocumentReader, collection, field, roleFilter string) ([]string, error) {
	ctx, span := tracing.Tracer().Start(ctx, "tickets.CollectDistinct")
	defer span.End()

	var (
		docs []docstore.Document
		err  error
	)
	if roleFilter == "" {
		docs, err = db.All(ctx, collection)
	} else {
		docs, err = byRole(ctx, db, collection, roleFilter)
	}
	if err != nil {
		return nil, err
	}

	out := []string{}
	seen := make(map[string]struct{})
	for _, d := range docs {
		v, ok := d.String(field)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// roleValues lists the stored spellings of a role.
func roleValues(role string) []string {
	r, err := models.ParseRole(role)
	switch {
	case err != nil:
		return []string{role}
	case r == models.RoleClient:
		return []string{models.RoleClient.String(), "user"}
	default:
		return []string{r.String()}
	}
}

// byRole runs one equality query per stored spelling of role and merges the
// results in id order, the order a full read returns them in.
func byRole(ctx context.Context, db DocumentReader, collection, role string) ([]docstore.Document, error) {
	values := roleValues(role)
	if len(values) == 1 {
		return db.Query(ctx, collection, models.FieldRole, values[0])
	}
	var docs []docstore.Document
	for _, v := range values {
		part, err := db.Query(ctx, collection, models.FieldRole, v)
		if err != nil {
			return nil, err
		}
		docs = append(docs, part...)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// WithWildcard returns values with Wildcard prepended. Stored values that
// Filter would read as the wildcard (any case) are dropped so the wildcard
// appears exactly once.
func WithWildcard(values []string) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, Wildcard)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), Wildcard) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FilterOptions holds the choices offered for each browse criterion. Every
// list starts with Wildcard.
type FilterOptions struct {
	Statuses  []string `json:"statuses"`
	Clients   []string `json:"clients"`
	Employees []string `json:"employees"`
}

// CollectFilterOptions gathers the status, client-name and employee-name
// facets concurrently. Any collection failure fails the whole call.
func CollectFilterOptions(ctx context.Context, db DocumentReader) (FilterOptions, error) {
	var statuses, clients, employees []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		statuses, err = CollectDistinct(gctx, db, models.CollectionTickets, models.FieldStatus, "")
		return err
	})
	g.Go(func() (err error) {
		clients, err = CollectDistinct(gctx, db, models.CollectionUsers, models.FieldName, models.RoleClient.String())
		return err
	})
	g.Go(func() (err error) {
		employees, err = CollectDistinct(gctx, db, models.CollectionUsers, models.FieldName, models.RoleEmployee.String())
		return err
	})
	if err := g.Wait(); err != nil {
		return FilterOptions{}, err
	}
	return FilterOptions{
		Statuses:  WithWildcard(statuses),
		Clients:   WithWildcard(clients),
		Employees: WithWildcard(employees),
	}, nil
}

// contains reports whether values holds v, ignoring case.
func contains(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
