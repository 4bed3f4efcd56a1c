package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Slot binds one key to a JSON-encoded snapshot of type T.
type Slot[T any] struct {
	kv  KV
	key string
}

func NewSlot[T any](kv KV, key string) *Slot[T] {
	return &Slot[T]{kv: kv, key: key}
}

func (s *Slot[T]) Key() string {
	return s.key
}

// Load returns the stored snapshot. ok is false when the key is absent.
// A value that does not decode yields ErrCorrupt.
func (s *Slot[T]) Load(ctx context.Context) (snapshot T, ok bool, err error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return snapshot, false, nil
	}
	if err != nil {
		return snapshot, false, fmt.Errorf("load %s: %w", s.key, err)
	}

	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return snapshot, false, fmt.Errorf("load %s: %w: %v", s.key, ErrCorrupt, err)
	}

	return snapshot, true, nil
}

func (s *Slot[T]) Save(ctx context.Context, snapshot T) error {
	var b Batch
	if err := s.Stage(&b, snapshot); err != nil {
		return err
	}
	return s.kv.Apply(ctx, b)
}

func (s *Slot[T]) Clear(ctx context.Context) error {
	return Delete(ctx, s.kv, s.key)
}

// Stage adds the encoded snapshot to b so it can be written together with
// other keys.
func (s *Slot[T]) Stage(b *Batch, snapshot T) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	b.Put(s.key, string(data))
	return nil
}

func (s *Slot[T]) StageClear(b *Batch) {
	b.Remove(s.key)
}
