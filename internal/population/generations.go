package population

import (
	"math"
	"strings"

	"evocut/internal/skeleton"
	"evocut/internal/textutil"
)

// BuildGenerations lists every previous population followed by the current
// one. Generation numbers start at 0.
func BuildGenerations(run *Run) []Generation {
	if run == nil {
		return nil
	}
	records := make([]Record, 0, len(run.Previous)+1)
	records = append(records, run.Previous...)
	records = append(records, Record{Population: run.Current, BestFitness: run.BestFitness})

	gens := make([]Generation, 0, len(records))
	for i, rec := range records {
		gens = append(gens, Generation{
			Gen:         i,
			Population:  rec.Population,
			BestFitness: rec.BestFitness,
			MeanFitness: MeanFitness(rec.Population),
			StdFitness:  StdFitness(rec.Population),
			BestIndiv:   Best(rec.Population),
		})
	}
	return gens
}

// fitnessOr returns the individual's fitness, or def when it has none.
func fitnessOr(ind Individual, def float64) float64 {
	if !ind.HasFitness {
		return def
	}
	return ind.Fitness
}

// MeanFitness is the arithmetic mean; missing fitness counts as 0.
func MeanFitness(pop []Individual) float64 {
	if len(pop) == 0 {
		return 0
	}
	sum := 0.0
	for _, ind := range pop {
		sum += fitnessOr(ind, 0)
	}
	return sum / float64(len(pop))
}

// StdFitness is the population standard deviation; missing fitness counts as 0.
func StdFitness(pop []Individual) float64 {
	if len(pop) == 0 {
		return 0
	}
	m := MeanFitness(pop)
	acc := 0.0
	for _, ind := range pop {
		d := fitnessOr(ind, 0) - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(pop)))
}

// Best returns the individual with the highest fitness. Ties keep the
// earliest; individuals without fitness rank lowest. Nil for an empty
// population.
func Best(pop []Individual) *Individual {
	if len(pop) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(pop); i++ {
		if fitnessOr(pop[i], math.Inf(-1)) > fitnessOr(pop[best], math.Inf(-1)) {
			best = i
		}
	}
	return &pop[best]
}

// NormalizeCut converts CRLF to LF and trims surrounding whitespace.
func NormalizeCut(cut string) string {
	return strings.TrimSpace(textutil.NormalizeLF(cut))
}

// ExtractCut returns the normalized cut of ind, or "" for nil.
func ExtractCut(ind *Individual) string {
	if ind == nil {
		return ""
	}
	return NormalizeCut(ind.Chromosome.AddedCut)
}

// ExtractFullCode returns the trimmed full code of ind, or "" for nil.
func ExtractFullCode(ind *Individual) string {
	if ind == nil {
		return ""
	}
	return strings.TrimSpace(ind.Chromosome.FullCode)
}

// ExtractIdea returns the trimmed idea text of ind, or "" for nil.
func ExtractIdea(ind *Individual) string {
	if ind == nil {
		return ""
	}
	return strings.TrimSpace(ind.Chromosome.Idea)
}

// FindCodeSource returns the first individual, scanning generations in
// order, that carries full code: the generation's best if it has any,
// otherwise the first such member. Nil when none does.
func FindCodeSource(gens []Generation) *Individual {
	for _, g := range gens {
		best := g.BestIndiv
		if best == nil {
			best = Best(g.Population)
		}
		if best != nil && best.Chromosome.FullCode != "" {
			return best
		}
		for i := range g.Population {
			if g.Population[i].Chromosome.FullCode != "" {
				return &g.Population[i]
			}
		}
	}
	return nil
}

// SkeletonSource tells where a resolved skeleton came from.
type SkeletonSource string

const (
	SourceUploaded SkeletonSource = "uploaded"
	SourceDerived  SkeletonSource = "derived"
	SourceRunJSON  SkeletonSource = "run_json"
	SourceConfig   SkeletonSource = "config"
	SourceMissing  SkeletonSource = "missing"
)

// MissingSkeleton is shown when no skeleton could be resolved.
const MissingSkeleton = "# (skeleton missing in run JSON)"

// ResolvedSkeleton is the outcome of ResolveSkeleton.
type ResolvedSkeleton struct {
	Code     string            `json:"code"`
	Source   SkeletonSource    `json:"source"`
	Strategy skeleton.Strategy `json:"strategy,omitempty"`
	// CodeSource is the individual the full code and cut were taken from.
	CodeSource *Individual `json:"-"`
}

// ResolveSkeleton picks the skeleton shown next to the replay. An uploaded
// skeleton wins when preferUploaded is set and it is non-empty. Otherwise the
// skeleton is derived from the first individual with full code (falling back
// to the run's best individual) by removing its cut. When that yields
// nothing, the run-level skeleton fields are used, then the uploaded code.
func ResolveSkeleton(run *Run, gens []Generation, uploaded string, preferUploaded bool) ResolvedSkeleton {
	if preferUploaded && uploaded != "" {
		return finishSkeleton(ResolvedSkeleton{Code: uploaded, Source: SourceUploaded})
	}

	src := FindCodeSource(gens)
	if src == nil && run != nil {
		src = run.BestIndiv
	}
	code, strategy := skeleton.DeriveWithStrategy(ExtractFullCode(src), ExtractCut(src))
	if code != "" {
		return finishSkeleton(ResolvedSkeleton{Code: code, Source: SourceDerived, Strategy: strategy, CodeSource: src})
	}
	if run != nil && run.Skeleton != "" {
		return finishSkeleton(ResolvedSkeleton{Code: run.Skeleton, Source: SourceRunJSON, CodeSource: src})
	}
	return finishSkeleton(ResolvedSkeleton{Code: uploaded, Source: SourceConfig, CodeSource: src})
}

func finishSkeleton(r ResolvedSkeleton) ResolvedSkeleton {
	r.Code = textutil.TrimEnd(r.Code)
	if r.Code == "" {
		r.Code = MissingSkeleton
		r.Source = SourceMissing
	}
	return r
}
