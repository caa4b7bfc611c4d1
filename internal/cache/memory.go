package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// Memory is an in-process LRU cache with per-entry expiry.
// Entries are stored encoded so callers never share result slices.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates a memory cache holding up to size entries for ttl
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements Cache
func (m *Memory) Get(_ context.Context, key string) (*types.LookupResult, bool, error) {
	data, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	result, err := Decode(data)
	if err != nil {
		m.lru.Remove(key)
		return nil, false, err
	}
	return result, true, nil
}

// Set implements Cache
func (m *Memory) Set(_ context.Context, key string, result types.LookupResult) error {
	data, err := Encode(result)
	if err != nil {
		return err
	}
	m.lru.Add(key, data)
	return nil
}

// Len returns the number of live entries
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Purge removes all entries
func (m *Memory) Purge() {
	m.lru.Purge()
}

// Close implements Cache
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
