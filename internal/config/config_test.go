package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), []byte(contents), 0o644))
}

func TestLoadMissingFileAppliesDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSeconds, c.TimeoutSeconds)
	assert.Equal(t, DefaultGraceSeconds, c.GraceSeconds)
	assert.Equal(t, "null", c.Archive)
	assert.True(t, c.Parallelism > 0)
}

func TestLoadParsesKnownKeys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "parallelism 4\ntimeout-seconds 30\ngrace-seconds 5\narchive disk\nkeep-logs true\n")
	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Parallelism)
	assert.Equal(t, 30, c.TimeoutSeconds)
	assert.Equal(t, 5, c.GraceSeconds)
	assert.Equal(t, "disk", c.Archive)
	assert.True(t, c.KeepLogs)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "bogus-key value\n")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoadResolvesRelativeDiskArchiveDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "archive disk\ndisk-archive-dir cache\n")
	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), c.DiskArchiveDir)
}

func TestInitializeRejectsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir))
	assert.Error(t, Initialize(dir))
}

func TestArchiveCacheDirectoryPathDefaultsUnderBase(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive-cache"), c.ArchiveCacheDirectoryPath())
}
