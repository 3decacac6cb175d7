package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Memory[T any] struct {
	c *gocache.Cache
}

func NewMemory[T any](ttl time.Duration) *Memory[T] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory[T]{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, bool) {
	var zero T

	v, ok := m.c.Get(key)
	if !ok {
		return zero, false
	}

	t, ok := v.(T)
	if !ok {
		return zero, false
	}

	return t, true
}

func (m *Memory[T]) Set(_ context.Context, key string, val T) {
	m.c.SetDefault(key, val)
}

func (m *Memory[T]) Delete(_ context.Context, key string) {
	m.c.Delete(key)
}

func (m *Memory[T]) Clear() {
	m.c.Flush()
}
