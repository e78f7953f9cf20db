// Package replay prepares the data shown while a run is replayed generation
// by generation: KPIs, chart points, the best cut with its diff against the
// skeleton, and a ranked preview of the population. Pacing the frames is up
// to the caller.
package replay

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"evocut/internal/diff"
	"evocut/internal/population"
	"evocut/internal/textutil"
)

// Labels used when a generation has no cut.
const (
	NoCut      = "# (no cut)"
	NoIdea     = "-"
	moreMarker = "# ..."
)

// Options tunes Build. Zero values of the caps select the defaults.
type Options struct {
	// MaxGenerations keeps generations 0..MaxGenerations inclusive, so 0
	// keeps generation 0 only. Negative keeps all.
	MaxGenerations int
	// UploadedSkeleton is used instead of the derived skeleton when
	// PreferUploaded is set and it is non-empty.
	UploadedSkeleton string
	PreferUploaded   bool
	// SnippetLines caps the cut snippet (default 10).
	SnippetLines int
	// TopN caps the population preview (default 6).
	TopN int
	// IdeaWidth truncates ideas in the preview, in runes (default 60).
	IdeaWidth int
	Diff      diff.Options
}

func (o Options) withDefaults() Options {
	if o.SnippetLines <= 0 {
		o.SnippetLines = 10
	}
	if o.TopN <= 0 {
		o.TopN = 6
	}
	if o.IdeaWidth <= 0 {
		o.IdeaWidth = 60
	}
	return o
}

// ChartPoint is one sample of the fitness chart; Lower and Upper are
// mean -/+ one standard deviation.
type ChartPoint struct {
	Gen   int     `json:"gen"`
	Best  float64 `json:"best"`
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Row is one line of the population preview.
type Row struct {
	Rank    int      `json:"rank"`
	Fitness *float64 `json:"fitness"`
	Idea    string   `json:"idea"`
}

// Frame is everything shown for one generation.
type Frame struct {
	Gen     int        `json:"gen"`
	Best    float64    `json:"best"`
	Mean    float64    `json:"mean"`
	Std     float64    `json:"std"`
	Point   ChartPoint `json:"point"`
	Idea    string     `json:"idea"`
	Cut     string     `json:"cut"`
	Snippet string     `json:"snippet"`
	Top     []Row      `json:"top"`
	// Diff is skeleton -> skeleton with the cut injected.
	Diff     string `json:"diff,omitempty"`
	Added    int    `json:"added"`
	Removed  int    `json:"removed"`
	Oversize bool   `json:"oversize,omitempty"`
}

// Summary compares the final generation with the baseline.
type Summary struct {
	Baseline       float64  `json:"baseline"`
	FinalBest      float64  `json:"finalBest"`
	AbsImprovement float64  `json:"absImprovement"`
	RelImprovement *float64 `json:"relImprovement"` // nil when baseline is 0
}

// Replay is the prepared replay of a run.
type Replay struct {
	Skeleton population.ResolvedSkeleton `json:"skeleton"`
	Frames   []Frame                     `json:"frames"`
	Summary  Summary                     `json:"summary"`
}

// ErrNoRun is returned by Build for a nil run.
var ErrNoRun = errors.New("replay: no run")

// Build prepares frames for every kept generation of run.
func Build(run *population.Run, opt Options) (*Replay, error) {
	if run == nil {
		return nil, ErrNoRun
	}
	opt = opt.withDefaults()

	gens := population.BuildGenerations(run)
	if opt.MaxGenerations >= 0 && opt.MaxGenerations+1 < len(gens) {
		gens = gens[:opt.MaxGenerations+1]
	}

	skel := population.ResolveSkeleton(run, gens, opt.UploadedSkeleton, opt.PreferUploaded)
	r := &Replay{Skeleton: skel, Frames: make([]Frame, 0, len(gens))}
	for _, g := range gens {
		r.Frames = append(r.Frames, buildFrame(g, skel.Code, opt))
	}
	r.Summary = summarize(gens)
	return r, nil
}

func buildFrame(g population.Generation, skel string, opt Options) Frame {
	best := g.BestIndiv
	if best == nil {
		best = population.Best(g.Population)
	}
	cut := population.ExtractCut(best)
	idea := population.ExtractIdea(best)

	shown := cut
	if shown == "" {
		shown = NoCut
	}
	if idea == "" {
		idea = NoIdea
	}

	bestFit := valueOr(g.BestFitness, 0)
	f := Frame{
		Gen:     g.Gen,
		Best:    bestFit,
		Mean:    g.MeanFitness,
		Std:     g.StdFitness,
		Idea:    idea,
		Cut:     shown,
		Snippet: textutil.HeadLines(shown, opt.SnippetLines, moreMarker),
		Top:     topRows(g.Population, opt.TopN, opt.IdeaWidth),
		Point: ChartPoint{
			Gen:   g.Gen,
			Best:  bestFit,
			Mean:  g.MeanFitness,
			Lower: g.MeanFitness - g.StdFitness,
			Upper: g.MeanFitness + g.StdFitness,
		},
	}
	f.Diff, f.Oversize = diff.Unified("skeleton.py", GenFileName(g.Gen), skel, InjectCut(skel, cut), opt.Diff)
	f.Added, f.Removed = diff.Stats(f.Diff)
	return f
}

// topRows ranks by fitness (missing counts as 0), stable on ties.
func topRows(pop []population.Individual, n, width int) []Row {
	idx := make([]int, len(pop))
	for i := range idx {
		idx[i] = i
	}
	fit := func(i int) float64 {
		if !pop[i].HasFitness {
			return 0
		}
		return pop[i].Fitness
	}
	sort.SliceStable(idx, func(a, b int) bool { return fit(idx[a]) > fit(idx[b]) })
	if len(idx) > n {
		idx = idx[:n]
	}

	rows := make([]Row, 0, len(idx))
	for rank, i := range idx {
		ind := pop[i]
		idea := population.ExtractIdea(&ind)
		if idea == "" {
			idea = NoIdea
		}
		row := Row{Rank: rank + 1, Idea: truncateRunes(idea, width)}
		if ind.HasFitness {
			v := ind.Fitness
			row.Fitness = &v
		}
		rows = append(rows, row)
	}
	return rows
}

func summarize(gens []population.Generation) Summary {
	if len(gens) == 0 {
		return Summary{}
	}
	first, last := gens[0], gens[len(gens)-1]
	s := Summary{
		Baseline:  valueOr(first.BestFitness, first.MeanFitness),
		FinalBest: valueOr(last.BestFitness, 0),
	}
	s.AbsImprovement = s.FinalBest - s.Baseline
	if s.Baseline != 0 {
		rel := s.AbsImprovement / math.Abs(s.Baseline)
		s.RelImprovement = &rel
	}
	return s
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// GenFileName names the injected code of a generation, e.g. gen_007.py.
func GenFileName(gen int) string {
	return fmt.Sprintf("gen_%03d.py", gen)
}
