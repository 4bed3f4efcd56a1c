package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewSlot[sample](NewMemoryStore(), "sample")

	_, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Save(ctx, sample{Name: "a", Count: 3}))

	got, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample{Name: "a", Count: 3}, got)

	require.NoError(t, slot.Clear(ctx))
	_, ok, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlotCorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	require.NoError(t, Set(ctx, kv, "sample", "[1,2"))

	_, ok, err := NewSlot[sample](kv, "sample").Load(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSlotStageJoinsBatch(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	a := NewSlot[sample](kv, "a")
	b := NewSlot[string](kv, "b")
	require.NoError(t, b.Save(ctx, "old"))

	var batch Batch
	require.NoError(t, a.Stage(&batch, sample{Name: "x"}))
	b.StageClear(&batch)
	require.NoError(t, kv.Apply(ctx, batch))

	assert.Equal(t, map[string]string{"a": `{"name":"x","count":0}`}, kv.Snapshot())
}
