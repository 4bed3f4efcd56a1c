package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreContract(t *testing.T) {
	runKVContract(t, NewMemoryStore())
}

func TestMemoryStoreClosed(t *testing.T) {
	m := NewMemoryStore()
	m.Close()

	_, err := m.Get(context.Background(), KeyToken)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, Set(context.Background(), m, KeyToken, "x"), ErrClosed)
}
