// Package store persists small named values across runs. Values are JSON
// blobs in an embedded NATS JetStream key-value bucket; unreadable entries
// degrade to absent rather than erroring, so a corrupt store never takes
// the client down with it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/resumekit/resumedesk/internal/logger"
)

// Keys used by the wizard and preference surfaces.
const (
	KeyStep             = "step"
	KeySelectedTemplate = "selected-template"
	KeyResultSet        = "result-set"
	KeyDarkMode         = "dark-mode"
	KeyFavorites        = "favorite-templates"
	KeyContactInfo      = "contact-info"
)

// Store reads and writes named values. Load reports found=false for keys
// that were never written or whose stored bytes no longer decode.
type Store interface {
	Save(ctx context.Context, key string, value any) error
	Load(ctx context.Context, key string, dest any) (bool, error)
	Delete(ctx context.Context, key string) error
}

// KVStore is the JetStream-backed Store implementation.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore wraps an open key-value bucket.
func NewKVStore(kv jetstream.KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

// Save serializes value as JSON and writes it under key.
func (s *KVStore) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Load reads the last written value for key into dest. A missing key or a
// value that fails to decode reports found=false without an error.
func (s *KVStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	if err := json.Unmarshal(entry.Value(), dest); err != nil {
		// Corrupt entry. Treat as absent; the caller falls back to defaults.
		logger.Warn("Discarding corrupt stored value for %s: %v", key, err)
		return false, nil
	}
	return true, nil
}

// Delete removes key. Deleting a key that does not exist is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Memory is an in-process Store used by tests and by `run` before the
// bucket is open. It shares the corrupt-degrades-to-absent contract.
type Memory struct {
	values map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Save serializes value as JSON and keeps it in memory.
func (m *Memory) Save(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	m.values[key] = data
	return nil
}

// Load reads a previously saved value into dest.
func (m *Memory) Load(_ context.Context, key string, dest any) (bool, error) {
	data, ok := m.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

// Corrupt overwrites a key with bytes that will not decode. Test hook.
func (m *Memory) Corrupt(key string) {
	m.values[key] = []byte("{not json")
}
