package population

import (
	"path/filepath"
	"testing"

	"evocut/internal/skeleton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Run {
	t.Helper()
	run, err := Load(filepath.Join("testdata", "tsp_run.json"))
	require.NoError(t, err)
	return run
}

func TestLoadFixture(t *testing.T) {
	run := loadFixture(t)
	require.Len(t, run.Previous, 2)
	assert.Len(t, run.Previous[1].Population, 3)
	require.NotNil(t, run.Previous[1].BestFitness)
	assert.Equal(t, 6.0, *run.Previous[1].BestFitness)
	assert.Len(t, run.Current, 2)
	require.NotNil(t, run.BestFitness)
	assert.Equal(t, 7.5, *run.BestFitness)
	require.NotNil(t, run.BestIndiv)
	assert.Equal(t, "best", run.BestIndiv.Chromosome.Idea)

	noFit := run.Previous[1].Population[2]
	assert.False(t, noFit.HasFitness)
	assert.Equal(t, "", noFit.Chromosome.FullCode)
}

func TestParseRejectsNonObjects(t *testing.T) {
	for _, doc := range []string{"{", "[1,2]", "42", ""} {
		_, err := Parse([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidRun, doc)
	}
}

func TestParseToleratesMistypedFields(t *testing.T) {
	run, err := Parse([]byte(`{
		"prev_populations": [ {"not": "a tuple"}, [null, null] ],
		"current_population": "oops",
		"best_fitness": null,
		"bestIndiv": {"fitness": "2.5", "chromosome": {"full_code": 12}}
	}`))
	require.NoError(t, err)
	require.Len(t, run.Previous, 2)
	assert.Empty(t, run.Previous[0].Population)
	assert.Nil(t, run.Previous[1].BestFitness)
	assert.Empty(t, run.Current)
	assert.Nil(t, run.BestFitness)
	require.NotNil(t, run.BestIndiv)
	assert.Equal(t, 2.5, run.BestIndiv.Fitness)
	assert.Equal(t, "12", run.BestIndiv.Chromosome.FullCode)
}

func TestBuildGenerations(t *testing.T) {
	gens := BuildGenerations(loadFixture(t))
	require.Len(t, gens, 3)

	for i, g := range gens {
		assert.Equal(t, i, g.Gen)
	}

	assert.InDelta(t, 2.0, gens[0].MeanFitness, 1e-9)
	assert.InDelta(t, 1.0, gens[0].StdFitness, 1e-9)
	assert.Equal(t, "no code yet", gens[0].BestIndiv.Chromosome.Idea)

	assert.InDelta(t, 8.0/3.0, gens[1].MeanFitness, 1e-9)
	assert.Equal(t, "subtour elimination", gens[1].BestIndiv.Chromosome.Idea)

	assert.InDelta(t, 6.0, gens[2].MeanFitness, 1e-9)
	assert.InDelta(t, 1.5, gens[2].StdFitness, 1e-9)
	require.NotNil(t, gens[2].BestFitness)
	assert.Equal(t, 7.5, *gens[2].BestFitness)
}

func TestBuildGenerationsEmptyRun(t *testing.T) {
	run, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	gens := BuildGenerations(run)
	require.Len(t, gens, 1)
	assert.Nil(t, gens[0].BestIndiv)
	assert.Zero(t, gens[0].MeanFitness)
	assert.Zero(t, gens[0].StdFitness)
	assert.Nil(t, BuildGenerations(nil))
}

func TestBest(t *testing.T) {
	assert.Nil(t, Best(nil))

	tie := []Individual{
		{Fitness: 5, HasFitness: true, Chromosome: Chromosome{Idea: "first"}},
		{Fitness: 5, HasFitness: true, Chromosome: Chromosome{Idea: "second"}},
	}
	assert.Equal(t, "first", Best(tie).Chromosome.Idea)

	missing := []Individual{
		{Chromosome: Chromosome{Idea: "none"}},
		{Fitness: -1, HasFitness: true, Chromosome: Chromosome{Idea: "negative"}},
	}
	assert.Equal(t, "negative", Best(missing).Chromosome.Idea)
}

func TestExtractors(t *testing.T) {
	assert.Equal(t, "", ExtractCut(nil))
	assert.Equal(t, "", ExtractFullCode(nil))
	assert.Equal(t, "", ExtractIdea(nil))

	ind := &Individual{Chromosome: Chromosome{
		FullCode: "\n code \n",
		AddedCut: "\r\n a\r\n b \r\n",
		Idea:     "  idea ",
	}}
	assert.Equal(t, "a\n b", ExtractCut(ind))
	assert.Equal(t, "code", ExtractFullCode(ind))
	assert.Equal(t, "idea", ExtractIdea(ind))
}

func TestFindCodeSource(t *testing.T) {
	gens := BuildGenerations(loadFixture(t))
	src := FindCodeSource(gens)
	require.NotNil(t, src)
	assert.Equal(t, "subtour elimination", src.Chromosome.Idea)

	assert.Nil(t, FindCodeSource(gens[:1]))
}

func TestFindCodeSourceFallsBackToMember(t *testing.T) {
	gens := []Generation{{Population: []Individual{
		{Fitness: 9, HasFitness: true},
		{Fitness: 1, HasFitness: true, Chromosome: Chromosome{FullCode: "x", Idea: "member"}},
	}}}
	src := FindCodeSource(gens)
	require.NotNil(t, src)
	assert.Equal(t, "member", src.Chromosome.Idea)
}

func TestResolveSkeleton(t *testing.T) {
	run := loadFixture(t)
	gens := BuildGenerations(run)

	t.Run("derived from first code source", func(t *testing.T) {
		res := ResolveSkeleton(run, gens, "uploaded code", false)
		assert.Equal(t, SourceDerived, res.Source)
		assert.Equal(t, skeleton.StrategyExact, res.Strategy)
		assert.Equal(t, "def build(m):\n    m.x = 1\n    \n    return m", res.Code)
		assert.NotContains(t, res.Code, "m.sec = 2")
	})

	t.Run("uploaded preferred", func(t *testing.T) {
		res := ResolveSkeleton(run, gens, "def mine():\n    pass\n\n", true)
		assert.Equal(t, SourceUploaded, res.Source)
		assert.Equal(t, "def mine():\n    pass", res.Code)
	})

	t.Run("uploaded preferred but empty", func(t *testing.T) {
		res := ResolveSkeleton(run, gens, "", true)
		assert.Equal(t, SourceDerived, res.Source)
	})

	t.Run("run level skeleton", func(t *testing.T) {
		r, err := Parse([]byte(`{"base_code": "base\n"}`))
		require.NoError(t, err)
		res := ResolveSkeleton(r, BuildGenerations(r), "cfg", false)
		assert.Equal(t, SourceRunJSON, res.Source)
		assert.Equal(t, "base", res.Code)
	})

	t.Run("config code", func(t *testing.T) {
		r, err := Parse([]byte(`{}`))
		require.NoError(t, err)
		res := ResolveSkeleton(r, BuildGenerations(r), "cfg", false)
		assert.Equal(t, SourceConfig, res.Source)
		assert.Equal(t, "cfg", res.Code)
	})

	t.Run("missing", func(t *testing.T) {
		r, err := Parse([]byte(`{}`))
		require.NoError(t, err)
		res := ResolveSkeleton(r, BuildGenerations(r), "", false)
		assert.Equal(t, SourceMissing, res.Source)
		assert.Equal(t, MissingSkeleton, res.Code)
	})
}
