package kv

import (
	"context"
	"sync"
)

// MemoryChannel is an in-process Channel for tests and DB-less runs.
type MemoryChannel struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{entries: make(map[string]string)}
}

func (c *MemoryChannel) Put(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *MemoryChannel) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *MemoryChannel) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
