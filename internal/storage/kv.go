// Package storage persists client state snapshots in a key-value store.
//
// Values are opaque strings, the same contract a browser's localStorage
// offers. Backends differ only in where the strings live.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("stored value is corrupt")
	ErrClosed   = errors.New("store is closed")
)

// Well-known keys.
const (
	KeyToken     = "token"
	KeyUser      = "user"
	KeyCartItems = "cartItems"
	KeyResetFlow = "resetFlow"
)

// KV is a blocking key-value store. Get returns ErrNotFound for a missing
// key. Apply writes every entry of the batch or none of them.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Apply(ctx context.Context, b Batch) error
	Close() error
}

// Batch is a set of writes applied atomically. A key listed in both Set and
// Delete is deleted.
type Batch struct {
	Set    map[string]string
	Delete []string
}

func (b Batch) Empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}

func (b *Batch) Put(key, value string) {
	if b.Set == nil {
		b.Set = make(map[string]string)
	}
	b.Set[key] = value
}

func (b *Batch) Remove(keys ...string) {
	b.Delete = append(b.Delete, keys...)
}

// sets returns the Set entries that are not also deleted.
func (b Batch) sets() map[string]string {
	if len(b.Delete) == 0 {
		return b.Set
	}
	out := make(map[string]string, len(b.Set))
	for k, v := range b.Set {
		out[k] = v
	}
	for _, k := range b.Delete {
		delete(out, k)
	}
	return out
}

func Set(ctx context.Context, kv KV, key, value string) error {
	return kv.Apply(ctx, Batch{Set: map[string]string{key: value}})
}

func Delete(ctx context.Context, kv KV, keys ...string) error {
	return kv.Apply(ctx, Batch{Delete: keys})
}
