// Package cache holds the read-through stores used in front of the account repository.
package cache

import "context"

// Store is a best-effort key/value cache. Misses and backend failures look the
// same to callers: Get reports false and the caller falls back to the source.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, val T)
	Delete(ctx context.Context, key string)
}

// Nop never holds anything.
type Nop[T any] struct{}

func (Nop[T]) Get(context.Context, string) (T, bool) {
	var zero T
	return zero, false
}

func (Nop[T]) Set(context.Context, string, T) {}

func (Nop[T]) Delete(context.Context, string) {}
