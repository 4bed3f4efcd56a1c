package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runKVContract checks the behavior every backend must share.
func runKVContract(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set and overwrite", func(t *testing.T) {
		require.NoError(t, Set(ctx, kv, KeyToken, "t1"))
		require.NoError(t, Set(ctx, kv, KeyToken, "t2"))

		v, err := kv.Get(ctx, KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "t2", v)
	})

	t.Run("batch writes and deletes together", func(t *testing.T) {
		var b Batch
		b.Put(KeyUser, `{"id":"u1"}`)
		b.Put(KeyCartItems, `[]`)
		b.Remove(KeyToken)
		require.NoError(t, kv.Apply(ctx, b))

		_, err := kv.Get(ctx, KeyToken)
		assert.ErrorIs(t, err, ErrNotFound)

		v, err := kv.Get(ctx, KeyUser)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"u1"}`, v)
	})

	t.Run("delete wins over set in one batch", func(t *testing.T) {
		b := Batch{Set: map[string]string{"both": "x"}, Delete: []string{"both"}}
		require.NoError(t, kv.Apply(ctx, b))

		_, err := kv.Get(ctx, "both")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting absent keys is fine", func(t *testing.T) {
		assert.NoError(t, Delete(ctx, kv, "never-set", "also-never-set"))
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.NoError(t, kv.Apply(ctx, Batch{}))
	})
}
