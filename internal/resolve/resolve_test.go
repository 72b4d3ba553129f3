package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("p 1 2\n"), 0o644))
}

func writeList(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveDirectPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pace")
	b := filepath.Join(dir, "b.pace")
	touch(t, a)
	touch(t, b)

	out, err := Resolve(dir, []string{"a.pace", "b.pace"})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, out)
}

func TestResolveMissingDirectPathErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve(dir, []string{"nope.pace"})
	require.Error(t, err)
}

func TestResolveGlobEmptyExpansionIsNotError(t *testing.T) {
	dir := t.TempDir()
	out, err := Resolve(dir, []string{"*.pace"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestResolveGlob(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pace")
	b := filepath.Join(dir, "b.pace")
	touch(t, a)
	touch(t, b)

	out, err := Resolve(dir, []string{"*.pace"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, out)
}

func TestResolveDeduplicatesPreservingFirstOccurrence(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pace")
	touch(t, a)

	out, err := Resolve(dir, []string{"a.pace", "a.pace"})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, out)
}

func TestResolveListFileRelativeToItsOwnDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	inst := filepath.Join(sub, "x.pace")
	touch(t, inst)

	list := filepath.Join(dir, "set.lst")
	writeList(t, list, "# a comment", "", "sub/x.pace")

	out, err := Resolve(dir, []string{"set.lst"})
	require.NoError(t, err)
	assert.Equal(t, []string{inst}, out)
}

func TestResolveListFileNesting(t *testing.T) {
	dir := t.TempDir()
	leafDir := filepath.Join(dir, "leaf")
	inst := filepath.Join(leafDir, "x.pace")
	touch(t, inst)

	inner := filepath.Join(leafDir, "inner.lst")
	writeList(t, inner, "x.pace")

	outer := filepath.Join(dir, "outer.lst")
	writeList(t, outer, "leaf/inner.lst")

	out, err := Resolve(dir, []string{"outer.lst"})
	require.NoError(t, err)
	assert.Equal(t, []string{inst}, out)
}

func TestResolveListFileCycleDetected(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.lst")
	b := filepath.Join(dir, "b.lst")
	writeList(t, a, "b.lst")
	writeList(t, b, "a.lst")

	_, err := Resolve(dir, []string{"a.lst"})
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestResolveIdempotence(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pace")
	b := filepath.Join(dir, "b.pace")
	touch(t, a)
	touch(t, b)

	first, err := Resolve(dir, []string{"b.pace", "a.pace"})
	require.NoError(t, err)

	second, err := Resolve(dir, first)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
