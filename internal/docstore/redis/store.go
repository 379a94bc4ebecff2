// Package redis stores each document as a JSON string, keeps one id set per
// collection, and publishes a message per write so subscribers can re-query.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ticketdesk/internal/docstore"
)

const maxUpdateAttempts = 5

type Store struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

func New(rdb *redis.Client, prefix string, log zerolog.Logger) *Store {
	if prefix == "" {
		prefix = "ticketdesk"
	}
	return &Store{rdb: rdb, prefix: prefix, log: log.With().Str("component", "docstore.redis").Logger()}
}

func (s *Store) docKey(collection, id string) string {
	return s.prefix + ":doc:" + collection + ":" + id
}

func (s *Store) idsKey(collection string) string { return s.prefix + ":ids:" + collection }

func (s *Store) channel(collection string) string { return s.prefix + ":changed:" + collection }

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	raw, err := s.rdb.Get(ctx, s.docKey(collection, id)).Result()
	if err != nil {
		return docstore.Document{}, wrap(err)
	}
	fields, err := decode(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Query(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	all, err := s.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := []docstore.Document{}
	for _, d := range all {
		if v, ok := d.String(field); ok && v == value {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) All(ctx context.Context, collection string) ([]docstore.Document, error) {
	ids, err := s.rdb.SMembers(ctx, s.idsKey(collection)).Result()
	if err != nil {
		return nil, wrap(err)
	}
	out := []docstore.Document{}
	if len(ids) == 0 {
		return out, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrap(err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// id left in the set after the document key vanished
			continue
		}
		fields, err := decode(raw)
		if err != nil {
			s.log.Warn().Err(err).Str("collection", collection).Str("id", ids[i]).Msg("skipping undecodable document")
			continue
		}
		out = append(out, docstore.Document{ID: ids[i], Fields: fields})
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.docKey(collection, id), raw, 0)
		p.SAdd(ctx, s.idsKey(collection), id)
		return nil
	})
	if err != nil {
		return wrap(err)
	}
	s.publish(ctx, collection, id)
	return nil
}

// Update merges under WATCH so concurrent writers to the same document do not
// lose each other's fields.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	key := s.docKey(collection, id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			return wrap(err)
		}
		cur, err := decode(raw)
		if err != nil {
			return err
		}
		for k, v := range fields {
			cur[k] = v
		}
		merged, err := json.Marshal(cur)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, merged, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return wrap(err)
		}
		s.publish(ctx, collection, id)
		return nil
	}
	return fmt.Errorf("%w: update of %s/%s kept conflicting", docstore.ErrUnavailable, collection, id)
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) publish(ctx context.Context, collection, id string) {
	if err := s.rdb.Publish(ctx, s.channel(collection), id).Err(); err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("publish failed")
	}
}

func (s *Store) Subscribe(ctx context.Context, collection, field, value string, fn docstore.OnChange) (func(), error) {
	ps := s.rdb.Subscribe(ctx, s.channel(collection))
	// wait for the subscription to be confirmed so no write is missed between
	// the initial snapshot and the first message
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
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

	msgs := ps.Channel()
	go func() {
		defer ps.Close()
		deliver()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()
	return cancel, nil
}

func decode(raw string) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return docstore.ErrNotFound
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, docstore.ErrUnavailable):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	}
}
