package gcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFileName(t *testing.T) {
	tests := []struct {
		name string
		seq  int
		want string
	}{
		{"first page", 0, "gcache.page.000000"},
		{"zero padding", 42, "gcache.page.000042"},
		{"six digits", 999999, "gcache.page.999999"},
		{"counter beyond the padding width", 1000000, "gcache.page.1000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageFileName(DefaultBaseName, tt.seq)
			assert.Equal(t, tt.want, got)

			seq, err := ParsePageFileName(DefaultBaseName, got)
			require.NoError(t, err)
			assert.Equal(t, tt.seq, seq)
		})
	}
}

func TestParsePageFileNameRejectsForeignNames(t *testing.T) {
	for _, name := range []string{
		"",
		"gcache.page",
		"gcache.page.12",
		"gcache.page.00000x",
		"other.base.000000",
		"gcache.page.000000.bak",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePageFileName(DefaultBaseName, name)
			assert.ErrorIs(t, err, ErrBadPageName)
		})
	}
}

func TestFindPageFilesOrdersBySequence(t *testing.T) {
	dir := t.TempDir()

	touch := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	// created out of order, plus noise that must be ignored
	touch("gcache.page.000002")
	touch("gcache.page.000000")
	touch("gcache.page.000010")
	touch("gcache.page.000001")
	touch("galera.cache")
	touch("notes.txt")

	paths, err := FindPageFiles(dir, DefaultBaseName)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "gcache.page.000000"),
		filepath.Join(dir, "gcache.page.000001"),
		filepath.Join(dir, "gcache.page.000002"),
		filepath.Join(dir, "gcache.page.000010"),
	}
	assert.Equal(t, want, paths)
}

func TestFindPageFilesMissingDir(t *testing.T) {
	_, err := FindPageFiles(filepath.Join(t.TempDir(), "nowhere"), DefaultBaseName)
	require.Error(t, err)
}
