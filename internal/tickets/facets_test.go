package tickets

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
)

func TestCollectDistinct_RoleFilterIgnoresInsertionOrder(t *testing.T) {
	people := []models.User{
		{ID: "a", Name: "Eve", Role: models.RoleEmployee},
		{ID: "b", Name: "Alice", Role: models.RoleClient},
		{ID: "c", Name: "Mallory", Role: models.RoleEmployee},
		{ID: "d", Name: "Bob", Role: models.RoleClient},
		{ID: "e", Name: "Carol", Role: models.RoleClient},
		{ID: "f", Name: "Eve", Role: models.RoleEmployee},
	}
	reversed := make([]models.User, len(people))
	for i, u := range people {
		reversed[len(people)-1-i] = u
	}

	for name, order := range map[string][]models.User{"forward": people, "reversed": reversed} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			db := docstore.NewMemory()
			if err := seedUsers(ctx, db, order...); err != nil {
				t.Fatalf("seed: %v", err)
			}
			got, err := CollectDistinct(ctx, db, models.CollectionUsers, models.FieldName, "employee")
			if err != nil {
				t.Fatalf("CollectDistinct: %v", err)
			}
			sort.Strings(got)
			if want := []string{"Eve", "Mallory"}; !reflect.DeepEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestCollectDistinct_FirstSeenOrderAndSkips(t *testing.T) {
	ctx := context.Background()
	db := docstore.NewMemory()
	docs := map[string]map[string]any{
		"t1": {"status": "open"},
		"t2": {"status": "closed"},
		"t3": {"status": "open"},
		"t4": {"title": "no status"},
		"t5": {"status": 5},
		"t6": {"status": "in progress"},
	}
	for id, f := range docs {
		if err := db.Set(ctx, models.CollectionTickets, id, f); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := CollectDistinct(ctx, db, models.CollectionTickets, models.FieldStatus, "")
	if err != nil {
		t.Fatalf("CollectDistinct: %v", err)
	}
	if want := []string{"open", "closed", "in progress"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectDistinct_LegacyClientRole(t *testing.T) {
	ctx := context.Background()
	db := docstore.NewMemory()
	err := seedUsers(ctx, db,
		models.User{ID: "u1", Name: "Alice", Role: models.RoleClient},
		models.User{ID: "u2", Name: "Old Timer", Role: models.RoleClient, RawRole: "user"},
		models.User{ID: "u3", Name: "Eve", Role: models.RoleEmployee},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := CollectDistinct(ctx, db, models.CollectionUsers, models.FieldName, "client")
	if err != nil {
		t.Fatalf("CollectDistinct: %v", err)
	}
	if want := []string{"Alice", "Old Timer"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectDistinct_EmptyIsNotAnError(t *testing.T) {
	got, err := CollectDistinct(context.Background(), docstore.NewMemory(), models.CollectionTickets, models.FieldStatus, "")
	if err != nil {
		t.Fatalf("CollectDistinct: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestCollectDistinct_SurfacesStoreErrors(t *testing.T) {
	_, err := CollectDistinct(context.Background(), failingReader{err: errBackend}, models.CollectionTickets, models.FieldStatus, "")
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestWithWildcard(t *testing.T) {
	got := WithWildcard([]string{"open", "All", "closed"})
	if want := []string{"All", "open", "closed"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := WithWildcard(nil); !reflect.DeepEqual(got, []string{"All"}) {
		t.Errorf("got %v", got)
	}
	got = WithWildcard([]string{"open", "ALL", "all", " All "})
	if want := []string{"All", "open"}; !reflect.DeepEqual(got, want) {
		t.Errorf("case variants: got %v, want %v", got, want)
	}
}

// queryOnlyReader fails full reads so role-filtered collection must query.
type queryOnlyReader struct {
	docstore.Store
	queried []string
}

func (r *queryOnlyReader) All(context.Context, string) ([]docstore.Document, error) {
	return nil, errors.New("full read not expected")
}

func (r *queryOnlyReader) Query(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	r.queried = append(r.queried, field+"="+value)
	return r.Store.Query(ctx, collection, field, value)
}

func TestCollectDistinct_RoleFilterQueriesByRole(t *testing.T) {
	ctx := context.Background()
	db := docstore.NewMemory()
	if err := seedUsers(ctx, db,
		models.User{ID: "u2", Name: "Old Timer", Role: models.RoleClient, RawRole: "user"},
		models.User{ID: "u1", Name: "Alice", Role: models.RoleClient},
		models.User{ID: "u3", Name: "Eve", Role: models.RoleEmployee},
	); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := &queryOnlyReader{Store: db}
	got, err := CollectDistinct(ctx, r, models.CollectionUsers, models.FieldName, "client")
	if err != nil {
		t.Fatalf("CollectDistinct: %v", err)
	}
	if want := []string{"Alice", "Old Timer"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if want := []string{"role=client", "role=user"}; !reflect.DeepEqual(r.queried, want) {
		t.Errorf("queries = %v, want %v", r.queried, want)
	}

	r.queried = nil
	got, err = CollectDistinct(ctx, r, models.CollectionUsers, models.FieldName, "employee")
	if err != nil || !reflect.DeepEqual(got, []string{"Eve"}) || len(r.queried) != 1 {
		t.Errorf("employees = %v %v, queries %v", got, err, r.queried)
	}
}

func TestCollectFilterOptions(t *testing.T) {
	ctx := context.Background()
	db := docstore.NewMemory()
	if err := seedUsers(ctx, db,
		models.User{ID: "u1", Name: "Alice", Role: models.RoleClient},
		models.User{ID: "u2", Name: "Eve", Role: models.RoleEmployee},
		models.User{ID: "u3", Name: "Boss", Role: models.RoleManager},
	); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := seedTickets(ctx, db,
		models.Ticket{ID: "t1", Status: "open"},
		models.Ticket{ID: "t2", Status: "closed"},
	); err != nil {
		t.Fatalf("seed: %v", err)
	}

	opts, err := CollectFilterOptions(ctx, db)
	if err != nil {
		t.Fatalf("CollectFilterOptions: %v", err)
	}
	want := FilterOptions{
		Statuses:  []string{"All", "open", "closed"},
		Clients:   []string{"All", "Alice"},
		Employees: []string{"All", "Eve"},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("got %+v, want %+v", opts, want)
	}

	if _, err := CollectFilterOptions(ctx, failingReader{err: errBackend}); !errors.Is(err, errBackend) {
		t.Errorf("expected store error, got %v", err)
	}
}
