// Package kvstore persists JSON-encoded collections under string keys.
//
// The contract is deliberately forgiving: Set never returns an error to the
// caller (a failed write degrades that one call to in-memory-only behavior)
// and Get falls back to the supplied default when the key is absent or the
// stored payload cannot be decoded. Callers keep working against their
// in-memory state either way.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
)

// ErrNotFound is returned by a Medium when a key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Medium is a raw byte store underneath a Store. Implementations: memory
// (volatile, session-scoped), file, Redis, and Postgres (durable).
type Medium interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Store wraps a Medium with the JSON get/set contract.
type Store struct {
	medium Medium
}

func New(medium Medium) *Store {
	return &Store{medium: medium}
}

// Set serializes value and writes it under key. Failures are logged and
// swallowed.
func (s *Store) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("kvstore: marshal %s: %v", key, err)
		return
	}
	if err := s.medium.Save(ctx, key, data); err != nil {
		log.Printf("kvstore: save %s: %v", key, err)
	}
}

// Delete removes key. Failures are logged and swallowed.
func (s *Store) Delete(ctx context.Context, key string) {
	if err := s.medium.Remove(ctx, key); err != nil {
		log.Printf("kvstore: delete %s: %v", key, err)
	}
}

// Get reads key and decodes it into a T. An absent key, a medium failure,
// or a malformed payload all yield defaultValue.
func Get[T any](ctx context.Context, s *Store, key string, defaultValue T) T {
	data, err := s.medium.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("kvstore: load %s: %v", key, err)
		}
		return defaultValue
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("kvstore: decode %s: %v", key, err)
		return defaultValue
	}
	return value
}
