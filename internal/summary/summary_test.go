package summary

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	w, err := Open(path)
	require.NoError(t, err)

	score := 3
	require.NoError(t, w.Append(NewRecord("n1", "/a.pace", "deadbeef", "(1,2,3)", Valid, &score, Profile{WallSeconds: 0.5}, nil)))
	require.NoError(t, w.Append(NewRecord("n2", "/b.pace", "", "", Timeout, nil, Profile{WallSeconds: 2.0}, nil)))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	s := bufio.NewScanner(f)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	require.Len(t, lines, 2)

	var r1 map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &r1))
	assert.Equal(t, "Valid", r1["s_result"])
	assert.Equal(t, float64(3), r1["s_score"])
	assert.Equal(t, "deadbeef", r1["s_stride_hash"])

	var r2 map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &r2))
	assert.Equal(t, "Timeout", r2["s_result"])
	assert.Nil(t, r2["s_score"])
	assert.Nil(t, r2["s_stride_hash"])
}

func TestRecordMergesExtraHeaders(t *testing.T) {
	extras := map[string]json.RawMessage{"note": json.RawMessage(`"hi"`)}
	r := NewRecord("n", "/a.pace", "", "(1,2)", Valid, nil, Profile{}, extras)
	b, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "hi", m["note"])
	assert.Equal(t, "Valid", m["s_result"])
}

func TestRunDirPublishMovesTaskDir(t *testing.T) {
	root := t.TempDir()
	rd, err := NewRunDir(filepath.Join(root, "stride-logs"), "20260101_000000")
	require.NoError(t, err)

	taskDir, err := rd.TaskDir("abc123")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(taskDir, "stdout"), []byte("x"), 0o644))

	dst, err := rd.Publish(taskDir, Valid)
	require.NoError(t, err)

	_, err = os.Stat(taskDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dst)
	assert.NoError(t, err)
}

func TestNewRunDirRelinksLatest(t *testing.T) {
	root := filepath.Join(t.TempDir(), "stride-logs")
	rd1, err := NewRunDir(root, "20260101_000000")
	require.NoError(t, err)
	rd2, err := NewRunDir(root, "20260101_000001")
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(root, "latest"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(rd2.Root), target)
	_ = rd1
}
