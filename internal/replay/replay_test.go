package replay

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"evocut/internal/diff"
	"evocut/internal/population"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runDoc = `{
  "prev_populations": [
    [[{"fitness": 2, "chromosome": {"idea": "seed"}}, {"fitness": 4, "chromosome": {"idea": "seed2"}}], 4]
  ],
  "current_population": [
    {"fitness": 5, "chromosome": {"full_code": "def build(m):\n    m.x = 1\n    m.cut = 2\n    return m", "added_cut": "m.cut = 2", "idea": "a cut"}},
    {"fitness": 1, "chromosome": {"idea": "weak"}},
    {"chromosome": {"idea": ""}}
  ],
  "best_fitness": 5
}`

func mustRun(t *testing.T, doc string) *population.Run {
	t.Helper()
	run, err := population.Parse([]byte(doc))
	require.NoError(t, err)
	return run
}

func TestBuildFrames(t *testing.T) {
	r, err := Build(mustRun(t, runDoc), Options{MaxGenerations: -1})
	require.NoError(t, err)
	require.Len(t, r.Frames, 2)

	assert.Equal(t, population.SourceDerived, r.Skeleton.Source)
	assert.Equal(t, "def build(m):\n    m.x = 1\n    \n    return m", r.Skeleton.Code)

	f0 := r.Frames[0]
	assert.Equal(t, 0, f0.Gen)
	assert.Equal(t, 4.0, f0.Best)
	assert.Equal(t, 3.0, f0.Mean)
	assert.Equal(t, 1.0, f0.Std)
	assert.Equal(t, ChartPoint{Gen: 0, Best: 4, Mean: 3, Lower: 2, Upper: 4}, f0.Point)
	assert.Equal(t, NoCut, f0.Cut)
	assert.Equal(t, "seed2", f0.Idea)
	assert.Equal(t, 3, f0.Added, f0.Diff)

	f1 := r.Frames[1]
	assert.Equal(t, "m.cut = 2", f1.Cut)
	assert.Equal(t, "a cut", f1.Idea)
	assert.Contains(t, f1.Diff, "+m.cut = 2\n")
	require.Len(t, f1.Top, 3)
	assert.Equal(t, "a cut", f1.Top[0].Idea)
	assert.Equal(t, "weak", f1.Top[1].Idea)
	assert.Equal(t, NoIdea, f1.Top[2].Idea)
	assert.Nil(t, f1.Top[2].Fitness)

	assert.Equal(t, 4.0, r.Summary.Baseline)
	assert.Equal(t, 5.0, r.Summary.FinalBest)
	assert.Equal(t, 1.0, r.Summary.AbsImprovement)
	require.NotNil(t, r.Summary.RelImprovement)
	assert.InDelta(t, 0.25, *r.Summary.RelImprovement, 1e-9)
}

func TestBuildTruncatesGenerations(t *testing.T) {
	r, err := Build(mustRun(t, runDoc), Options{MaxGenerations: 0})
	require.NoError(t, err)
	require.Len(t, r.Frames, 1)
	assert.Equal(t, 0, r.Frames[0].Gen)
	assert.Equal(t, 0.0, r.Summary.AbsImprovement)

	r, err = Build(mustRun(t, runDoc), Options{MaxGenerations: 99})
	require.NoError(t, err)
	assert.Len(t, r.Frames, 2)
}

func TestBuildBaselineFallsBackToMean(t *testing.T) {
	r, err := Build(mustRun(t, `{"current_population": [{"fitness": 0}, {"fitness": 0}]}`), Options{MaxGenerations: -1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Summary.Baseline)
	assert.Nil(t, r.Summary.RelImprovement)
	assert.Equal(t, population.SourceMissing, r.Skeleton.Source)
}

func TestBuildNilRun(t *testing.T) {
	_, err := Build(nil, Options{})
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestBuildPrefersUploadedSkeleton(t *testing.T) {
	r, err := Build(mustRun(t, runDoc), Options{MaxGenerations: -1, UploadedSkeleton: "def mine(m):\n    return m\n", PreferUploaded: true})
	require.NoError(t, err)
	assert.Equal(t, population.SourceUploaded, r.Skeleton.Source)
	assert.Equal(t, "def mine(m):\n    return m", r.Skeleton.Code)
}

func TestSnippetAndTopCaps(t *testing.T) {
	pop := make([]population.Individual, 0, 8)
	for i := 0; i < 8; i++ {
		pop = append(pop, population.Individual{
			Fitness:    float64(i),
			HasFitness: true,
			Chromosome: population.Chromosome{Idea: strings.Repeat("é", 80)},
		})
	}
	cut := strings.Repeat("line\n", 12)
	pop[7].Chromosome.AddedCut = cut

	f := buildFrame(population.Generation{Gen: 3, Population: pop}, "base", Options{Diff: diff.Options{}}.withDefaults())
	assert.Len(t, f.Top, 6)
	assert.Equal(t, 7.0, *f.Top[0].Fitness)
	assert.Equal(t, 60, len([]rune(f.Top[0].Idea)))
	lines := strings.Split(f.Snippet, "\n")
	assert.Len(t, lines, 11)
	assert.Equal(t, moreMarker, lines[10])
}

func TestInjectCut(t *testing.T) {
	tmpl := "def build(m):\n    # <EVOCUT_INSERT_CUT_HERE>\n    return m\n"
	got := InjectCut(tmpl, "  m.c = 1  ")
	assert.Equal(t, "def build(m):\n    # >>> EvoCut: inserted cut\nm.c = 1\n# <<< EvoCut\n# <EVOCUT_INSERT_CUT_HERE>\n    return m\n", got)

	legacy := "x\n# <ALPHAEVOLVE_INSERT_CUT_HERE>\n"
	assert.Contains(t, InjectCut(legacy, ""), cutBlockEmpty+"\n"+cutBlockClose+"\n# <ALPHAEVOLVE_INSERT_CUT_HERE>")

	assert.Equal(t, "x\n\n"+cutBlockOpen+"\nc\n"+cutBlockClose+"\n", InjectCut("x\n\n\n", "c"))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{math.NaN(), Placeholder},
		{0, "0"},
		{0.12345, "0.123"},
		{0.1239, "0.124"},
		{2, "2"},
		{-0.0001, "0"},
		{12345.6, "12,346"},
		{-1500, "-1,500"},
		{1234567, "1.23M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.v, 3), "%v", tt.v)
	}
	assert.Equal(t, Placeholder, FormatOptional(nil, 3))
	assert.Equal(t, "12.5%", Percent(0.125))
	assert.Equal(t, Placeholder, Percent(math.NaN()))
}

func TestWriteFrameAndSummary(t *testing.T) {
	r, err := Build(mustRun(t, runDoc), Options{MaxGenerations: -1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, r.Frames[1]))
	require.NoError(t, WriteSummary(&buf, r.Summary))
	out := buf.String()
	assert.Contains(t, out, "=== Generation 1 ===")
	assert.Contains(t, out, "  | m.cut = 2")
	assert.Contains(t, out, "delta=+1 (25.0%)")
}
