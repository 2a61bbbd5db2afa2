// Package kv abstracts the durable key-value channel shared between the
// surface that performs a draw and the read-only surfaces that display it.
package kv

import "context"

// Channel is a small durable key-value store. Get reports whether the key was
// present; an absent key is not an error.
type Channel interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
