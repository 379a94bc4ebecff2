// Package docstore is the schemaless document store the ticket engine reads and
// writes. Backends support per-document access, equality queries on a single
// field, and push subscriptions; nothing else (no joins, no compound queries).
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get and Update when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable wraps backend and network failures.
	ErrUnavailable = errors.New("document store unavailable")
)

type Document struct {
	ID     string
	Fields map[string]any
}

// String returns the field as a string. ok is false when the field is missing
// or holds a non-string value.
func (d Document) String(field string) (string, bool) {
	v, ok := d.Fields[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// OnChange receives the full result set of a subscription every time it
// changes, starting with the initial snapshot. A non-nil err reports a failed
// refresh; the subscription stays active.
type OnChange func(docs []Document, err error)

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection, field, value string) ([]Document, error)
	All(ctx context.Context, collection string) ([]Document, error)
	// Set replaces the document (upsert).
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Subscribe pushes the result of Query(collection, field, value) to fn until
	// the returned stop func is called or ctx is done.
	Subscribe(ctx context.Context, collection, field, value string, fn OnChange) (stop func(), err error)
}

func matches(fields map[string]any, field, value string) bool {
	s, ok := fields[field].(string)
	return ok && s == value
}

func cloneFields(f map[string]any) map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

const pingCollection = "_health"

// Ping reads a document that never exists; NotFound means the backend answered.
func Ping(ctx context.Context, s Store) error {
	_, err := s.Get(ctx, pingCollection, "ping")
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
