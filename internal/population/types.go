// Package population reads the run history written by an evolutionary cut
// search and turns it into per-generation statistics.
//
// A run document looks like:
//
//	{
//	  "prev_populations":   [[[<individual>...], <best_fitness>], ...],
//	  "current_population": [<individual>...],
//	  "best_fitness":       <number>,
//	  "best_indiv":         <individual>,
//	  "skeleton":           "<optional base code>"
//	}
//
// where an individual is {"fitness": n, "chromosome": {"full_code", "added_cut", "idea"}}.
// Every field is optional; readers tolerate missing and mistyped values.
package population

import "errors"

// ErrInvalidRun is returned when a run document is not a JSON object.
var ErrInvalidRun = errors.New("invalid run history document")

// Chromosome is the code payload of an individual.
type Chromosome struct {
	FullCode string `json:"full_code"`
	AddedCut string `json:"added_cut"`
	Idea     string `json:"idea"`
}

// Individual is one candidate solution.
type Individual struct {
	Fitness    float64    `json:"fitness"`
	HasFitness bool       `json:"-"`
	Chromosome Chromosome `json:"chromosome"`
}

// Record is one entry of prev_populations: a population with the best
// fitness the search reported for it.
type Record struct {
	Population  []Individual
	BestFitness *float64
}

// Run is a parsed run history.
type Run struct {
	Previous    []Record
	Current     []Individual
	BestFitness *float64
	BestIndiv   *Individual
	// Skeleton is the first non-empty of skeleton, base_code, model_code.
	Skeleton string
}

// Generation is the view of one iteration used by the replay.
type Generation struct {
	Gen         int          `json:"gen"`
	Population  []Individual `json:"-"`
	BestFitness *float64     `json:"bestFitness"`
	MeanFitness float64      `json:"meanFitness"`
	StdFitness  float64      `json:"stdFitness"`
	BestIndiv   *Individual  `json:"-"`
}
