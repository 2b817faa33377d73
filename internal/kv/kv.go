// Package kv is the key-addressed blob persistence used for sessions, the
// session index, thumbnails and quota counters.
package kv

import (
	"context"
)

// Store is a durable-on-write key/value store. Get returns an error matching
// common.ErrNotFound for absent keys; Delete of an absent key succeeds.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Writer is the write half of a Store, handed to Batch callbacks.
type Writer interface {
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Batcher is implemented by stores that can commit several writes
// atomically. If fn returns an error none of its writes are applied.
type Batcher interface {
	Batch(ctx context.Context, fn func(w Writer) error) error
}

// Lister is implemented by stores that can enumerate keys under a prefix.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Batch runs fn atomically when s is a Batcher, otherwise it applies the
// writes directly in order.
func Batch(ctx context.Context, s Store, fn func(w Writer) error) error {
	if b, ok := s.(Batcher); ok {
		return b.Batch(ctx, fn)
	}
	return fn(s)
}
