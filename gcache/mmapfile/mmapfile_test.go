package mmapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMapsWritableRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.000000")

	f, err := Create(path, 4096)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, path, f.Path())
	assert.Equal(t, int64(4096), f.Size())
	require.Len(t, f.Data(), 4096)

	copy(f.Data(), []byte("write through the mapping"))
	require.NoError(t, f.Sync())

	// the write must be visible through the file itself
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("write through the mapping"), raw[:25])
}

func TestCreateRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.000000")

	f, err := Create(path, 4096)
	require.NoError(t, err)
	defer f.Close()

	_, err = Create(path, 4096)
	require.Error(t, err)
}

func TestCreateFailureLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "page.000000"), 0)
	require.Error(t, err)

	_, err = Create(filepath.Join(dir, "no", "such", "dir", "page.000000"), 4096)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDontNeedIsHarmless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.000000")

	f, err := Create(path, 8192)
	require.NoError(t, err)
	defer f.Close()

	copy(f.Data(), []byte("advice must not lose data"))
	require.NoError(t, f.Sync())
	require.NoError(t, f.DontNeed())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("advice must not lose data"), raw[:25])
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.000000")

	f, err := Create(path, 4096)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	// closing does not remove the file
	_, err = os.Stat(path)
	require.NoError(t, err)
}
