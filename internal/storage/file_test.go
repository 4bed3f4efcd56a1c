package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreContract(t *testing.T) {
	fs, err := OpenFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	runKVContract(t, fs)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ctx := context.Background()

	fs, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, Set(ctx, fs, KeyToken, "abc"))
	require.NoError(t, fs.Close())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := OpenFileStore(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}
