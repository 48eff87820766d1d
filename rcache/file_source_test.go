package rcache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sashell/go-libsap/rcache"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	err := os.WriteFile(path, []byte(`[{"__id__": "a", "__types__": ["t"], "__source__": "s"}]`), 0o644)
	require.NoError(t, err)

	src := rcache.NewFileSource(path)
	require.Equal(t, "file:"+path, src.String())

	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Edits are picked up on the next fetch.
	err = os.WriteFile(path, []byte(`[]`), 0o644)
	require.NoError(t, err)
	records, err = src.Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFileSourceMissing(t *testing.T) {
	src := rcache.NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}
