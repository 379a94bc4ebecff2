// Package postgres stores documents as JSONB rows in a single table and uses
// LISTEN/NOTIFY to drive subscriptions.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"ticketdesk/internal/docstore"
)

const notifyChannel = "docstore"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

type Store struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

func New(db *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "docstore.postgres").Logger()}
}

// EnsureSchema creates the documents table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return wrap(err)
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var data map[string]any
	err := s.db.QueryRow(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND id = $2`, collection, id).Scan(&data)
	if err != nil {
		return docstore.Document{}, wrap(err)
	}
	return docstore.Document{ID: id, Fields: data}, nil
}

func (s *Store) Query(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	return s.list(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1
		  AND jsonb_typeof(data -> $2::text) = 'string'
		  AND data ->> $2::text = $3
		ORDER BY id`, collection, field, value)
}

func (s *Store) All(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.list(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1
		ORDER BY id`, collection)
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]docstore.Document, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	out := []docstore.Document{}
	for rows.Next() {
		var d docstore.Document
		if err := rows.Scan(&d.ID, &d.Fields); err != nil {
			return nil, wrap(err)
		}
		out = append(out, d)
	}
	return out, wrap(rows.Err())
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, id, fields)
	if err != nil {
		return wrap(err)
	}
	s.notify(ctx, collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, fields)
	if err != nil {
		return wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	s.notify(ctx, collection)
	return nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// notify is best effort: the write already succeeded.
func (s *Store) notify(ctx context.Context, collection string) {
	if _, err := s.db.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("notify failed")
	}
}

// Subscribe holds one pooled connection in LISTEN mode for the lifetime of the
// subscription and re-runs the query whenever the collection changes.
func (s *Store) Subscribe(ctx context.Context, collection, field, value string, fn docstore.OnChange) (func(), error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, wrap(err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, wrap(err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	deliver := func() {
		docs, err := s.Query(subCtx, collection, field, value)
		if subCtx.Err() != nil {
			return
		}
		fn(docs, err)
	}

	go func() {
		defer func() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN "+notifyChannel)
			conn.Release()
		}()
		deliver()
		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					s.log.Error().Err(err).Str("collection", collection).Msg("subscription ended")
					fn(nil, wrap(err))
				}
				return
			}
			if n.Payload == collection {
				deliver()
			}
		}
	}()
	return cancel, nil
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return docstore.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	}
}
