package models

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/jssp.py", "x")
	writeFile(t, root, "a_tsp.PY", "x")
	writeFile(t, root, "notes.md", "x")
	writeFile(t, root, ".venv/lib/site.py", "x")
	writeFile(t, root, "pkg/__pycache__/m.py", "x")
	writeFile(t, root, "big.py", "0123456789")

	files, err := Collect(root, Options{MaxFileBytes: 5})
	require.NoError(t, err)

	var got []string
	for _, f := range files {
		got = append(got, f.RelPath)
	}
	assert.Equal(t, []string{"a_tsp.PY", "b/jssp.py"}, got)
}

func TestCollectCustomExts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "m.py", "x")
	writeFile(t, root, "m.txt", "x")
	files, err := Collect(root, Options{Exts: []string{".txt"}, Exclude: []string{}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "m.txt", files[0].RelPath)
}

func TestScan(t *testing.T) {
	defer goleak.VerifyNone(t)
	root := t.TempDir()
	writeFile(t, root, "tsp.py", "import pyomo\n<evolve>\nm.c = 1\n</evolve>\n")
	writeFile(t, root, "plain.py", "# job shop\nx = 1\n")

	files, err := Collect(root, Options{})
	require.NoError(t, err)
	res, err := Scan(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "plain.py", res[0].RelPath)
	assert.False(t, res[0].OK())
	assert.Equal(t, "no evolve block", res[0].Err)
	assert.Equal(t, "jssp", res[0].Problem)

	assert.Equal(t, "tsp.py", res[1].RelPath)
	assert.True(t, res[1].OK())
	assert.Equal(t, "tsp", res[1].Problem)
	assert.Len(t, res[1].Ranges, 1)
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, []File{{RelPath: "x.py", AbsPath: "/nonexistent/x.py"}})
	assert.ErrorIs(t, err, context.Canceled)
}
