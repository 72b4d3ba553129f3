package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullClientAlwaysMisses(t *testing.T) {
	var c Client = NullClient{}
	_, found, err := c.FetchBestKnown("deadbeef")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.UploadSolution("deadbeef", "(1,2)", 3))
	assert.NoError(t, c.ReportError("deadbeef", Timeout))
	c.Close()
}

func TestDiskOnlyClientCachesBestScore(t *testing.T) {
	store, err := newDiskStore(t.TempDir())
	require.NoError(t, err)
	c := &diskOnlyClient{fast: store}

	_, found, err := c.FetchBestKnown("abc123")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.UploadSolution("abc123", "(1,2)", 4))
	score, found, err := c.FetchBestKnown("abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 4, score)
}

func TestDiskOnlyClientKeepsBetterScore(t *testing.T) {
	store, err := newDiskStore(t.TempDir())
	require.NoError(t, err)
	c := &diskOnlyClient{fast: store}

	require.NoError(t, c.UploadSolution("k", "(1,2)", 2))
	require.NoError(t, c.UploadSolution("k", "(1,2,3)", 5))
	require.NoError(t, c.UploadSolution("k", "(1,2)", 1))

	score, found, err := c.FetchBestKnown("k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, score)
}

func TestDiskOnlyClientRecordsErrorKind(t *testing.T) {
	store, err := newDiskStore(t.TempDir())
	require.NoError(t, err)
	c := &diskOnlyClient{fast: store}

	require.NoError(t, c.ReportError("k", Infeasible))
	r, err := store.get("k")
	require.NoError(t, err)
	assert.Equal(t, Infeasible, r.ErrorKind)
}

func TestSanitizeProducesStablePathComponents(t *testing.T) {
	assert.Equal(t, "deadbeef", sanitize("deadbeef"))
	assert.Equal(t, "__weird_key__", sanitize("./weird/key!!"))
}
