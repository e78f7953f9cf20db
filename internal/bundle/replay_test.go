package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"evocut/internal/population"
	"evocut/internal/replay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runDoc = `{
  "prev_populations": [
    [[{"fitness": 2, "chromosome": {"idea": "seed"}}], 2]
  ],
  "current_population": [
    {"fitness": 5, "chromosome": {"full_code": "def build(m):\n    m.x = 1\n    m.cut = 2\n    return m", "added_cut": "m.cut = 2", "idea": "a cut"}}
  ],
  "best_fitness": 5
}`

func buildReplay(t *testing.T) *replay.Replay {
	t.Helper()
	run, err := population.Parse([]byte(runDoc))
	require.NoError(t, err)
	r, err := replay.Build(run, replay.Options{MaxGenerations: -1})
	require.NoError(t, err)
	return r
}

func readZip(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := map[string][]byte{}
	for _, f := range zr.File {
		assert.True(t, f.Modified.Equal(fixedZipTime), f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = b
	}
	return out
}

func TestWriteReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tsp.zip")
	meta := Meta{ProblemID: "tsp", ProblemName: "TSP", RunID: "demo_1"}
	require.NoError(t, WriteReplay(path, buildReplay(t), meta))

	files := readZip(t, path)
	for _, name := range []string{"manifest.json", "README.md", "skeleton.py", "generations.json", "summary.json", "cuts/gen_000.patch", "cuts/gen_001.patch"} {
		assert.Contains(t, files, name)
	}

	var man Manifest
	require.NoError(t, json.Unmarshal(files["manifest.json"], &man))
	assert.Equal(t, Format, man.Format)
	assert.Equal(t, meta, man.Meta)
	assert.Equal(t, 2, man.Generations)
	assert.Equal(t, population.SourceDerived, man.SkeletonSource)
	assert.Len(t, man.Files, len(files)-1)
	assert.IsIncreasing(t, man.Files)

	var gens []GenEntry
	require.NoError(t, json.Unmarshal(files["generations.json"], &gens))
	require.Len(t, gens, 2)
	assert.Equal(t, "cuts/gen_000.patch", gens[0].Patch)
	assert.Contains(t, string(files["cuts/gen_000.patch"]), "+# >>> EvoCut: no cut for this generation\n")
	assert.Equal(t, "m.cut = 2", gens[1].Cut)
	assert.Equal(t, "cuts/gen_001.patch", gens[1].Patch)
	assert.Contains(t, string(files["cuts/gen_001.patch"]), "+m.cut = 2\n")

	assert.Equal(t, "def build(m):\n    m.x = 1\n    \n    return m\n", string(files["skeleton.py"]))
	assert.Contains(t, string(files["README.md"]), "# TSP")
	assert.Contains(t, string(files["README.md"]), "from run demo_1")
}

func TestWriteReplayDeterministic(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.zip"), filepath.Join(dir, "b.zip")
	require.NoError(t, WriteReplay(a, buildReplay(t), Meta{ProblemID: "tsp"}))
	require.NoError(t, WriteReplay(b, buildReplay(t), Meta{ProblemID: "tsp"}))

	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(ab, bb))
}

func TestWriteReplayNil(t *testing.T) {
	err := WriteReplay(filepath.Join(t.TempDir(), "x.zip"), nil, Meta{})
	assert.ErrorIs(t, err, replay.ErrNoRun)
}

func TestSanitizePath(t *testing.T) {
	tests := map[string]string{
		"cuts/gen_001.patch": "cuts/gen_001.patch",
		"/abs/x.py":          "abs/x.py",
		"C:\\win\\x.py":      "win/x.py",
		"../../etc/passwd":   "etc/passwd",
		"a/./b/../c":         "a/c",
		"":                   "entry",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizePath(in), in)
	}
}

func TestUniqueName(t *testing.T) {
	used := map[string]struct{}{}
	assert.Equal(t, "a.json", uniqueName("a.json", used))
	assert.Equal(t, "a-1.json", uniqueName("a.json", used))
	assert.Equal(t, "a-2.json", uniqueName("a.json", used))
	assert.Equal(t, "README", uniqueName("README", used))
	assert.Equal(t, "README-1", uniqueName("README", used))
}
