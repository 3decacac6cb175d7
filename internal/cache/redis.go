package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis stores gob-encoded values. Gob is used instead of JSON so that fields
// hidden from API output, like the secret hash, survive the round trip.
type Redis[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedis[T any](client *goredis.Client, prefix string, ttl time.Duration, log *slog.Logger) *Redis[T] {
	if log == nil {
		log = slog.Default()
	}

	return &Redis[T]{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (r *Redis[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.log.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		}
		return v, false
	}

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		r.log.WarnContext(ctx, "cache decode failed", "key", key, "err", err)
		var zero T
		return zero, false
	}

	return v, true
}

func (r *Redis[T]) Set(ctx context.Context, key string, val T) {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(val); err != nil {
		r.log.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}

	if err := r.client.Set(ctx, r.prefix+key, buf.Bytes(), r.ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}

func (r *Redis[T]) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.log.WarnContext(ctx, "cache delete failed", "key", key, "err", err)
	}
}
