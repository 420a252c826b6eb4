// Package kv is a small persistent cache for values that are expensive to
// recompute, such as review host lookups.
package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned for keys that were never set or have expired.
var ErrNotFound = errors.New("kv: key not found")

// Store persists JSON-encodable values. A zero ttl never expires.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Bucket is a typed view over the keys of Store that share one namespace.
type Bucket[T any] struct {
	store Store
	ns    string
}

// NewBucket returns a Bucket whose keys are stored as "name:key".
func NewBucket[T any](store Store, name string) *Bucket[T] {
	return &Bucket[T]{store: store, ns: name + ":"}
}

// Lookup returns the value for key. ok is false when the key is missing or
// expired.
func (b *Bucket[T]) Lookup(ctx context.Context, key string) (v T, ok bool, err error) {
	err = b.store.Get(ctx, b.ns+key, &v)
	switch {
	case errors.Is(err, ErrNotFound):
		return v, false, nil
	case err != nil:
		return v, false, err
	}
	return v, true, nil
}

func (b *Bucket[T]) Put(ctx context.Context, key string, value T, ttl time.Duration) error {
	return b.store.Put(ctx, b.ns+key, value, ttl)
}

func (b *Bucket[T]) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, b.ns+key)
}

// Keys lists live keys in the bucket without the namespace.
func (b *Bucket[T]) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.store.Keys(ctx, b.ns)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		keys[i] = strings.TrimPrefix(keys[i], b.ns)
	}
	return keys, nil
}
