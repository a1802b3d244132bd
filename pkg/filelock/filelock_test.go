package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLockExcludesSecondHolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	first := ForDir(dir)
	require.NoError(t, first.TryLock())
	defer first.Unlock()

	second := ForDir(dir)
	err := second.TryLock()
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Unlock())
	require.NoError(t, second.TryLock())
	assert.NoError(t, second.Unlock())
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "progress.json")
	require.NoError(t, AtomicWrite(path, []byte(`{"a":1}`)))
	require.NoError(t, AtomicWrite(path, []byte(`{"a":2}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
