// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"maps"
	"sync"
)

// MemoryKeyValueStore keeps entries in process memory. Data is lost on restart.
type MemoryKeyValueStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryKeyValueStore constructs an empty in-memory store.
func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{entries: make(map[string]string)}
}

// Get implements [KeyValueStore].
func (store *MemoryKeyValueStore) Get(_ context.Context, key string) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	value, ok := store.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// SetMany implements [KeyValueStore].
func (store *MemoryKeyValueStore) SetMany(_ context.Context, entries map[string]string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	maps.Copy(store.entries, entries)
	return nil
}

// Ping implements [KeyValueStore].
func (store *MemoryKeyValueStore) Ping(context.Context) error {
	return nil
}
