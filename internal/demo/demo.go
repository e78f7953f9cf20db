// Package demo ties a catalog problem, its recorded run and the saved run
// configuration together into a replay.
package demo

import (
	"errors"
	"fmt"
	"os"

	"evocut/internal/bundle"
	"evocut/internal/config"
	"evocut/internal/population"
	"evocut/internal/replay"
)

// ErrNoRunData is returned when a problem has no recorded run on disk.
var ErrNoRunData = errors.New("no run data")

// Request selects what to replay. A nil MaxGenerations falls back to the
// saved configuration, then to config.DefaultMaxGenerations; negative keeps
// every generation.
type Request struct {
	ProblemID      string
	MaxGenerations *int
}

// Result is a prepared replay with the settings it was built from.
type Result struct {
	Problem         config.Problem `json:"problem"`
	RunID           string         `json:"runId,omitempty"`
	MaxGenerations  int            `json:"maxGenerations"`
	MsPerGeneration int            `json:"msPerGeneration"`
	*replay.Replay
}

// BundleMeta describes the result in an exported archive.
func (r *Result) BundleMeta() bundle.Meta {
	return bundle.Meta{ProblemID: r.Problem.ID, ProblemName: r.Problem.DisplayName(), RunID: r.RunID}
}

// Build loads the run of req.ProblemID and prepares its replay. saved may
// be nil; it only applies when it was configured for the same problem.
func Build(cat *config.Catalog, saved *config.RunConfig, req Request) (*Result, error) {
	p, err := cat.Get(req.ProblemID)
	if err != nil {
		return nil, err
	}

	run, err := population.Load(cat.Resolve(p.RunJSONPath()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w for problem %s", ErrNoRunData, p.ID)
		}
		return nil, err
	}

	res := &Result{
		Problem:         p,
		MaxGenerations:  config.DefaultMaxGenerations,
		MsPerGeneration: config.DefaultMsPerGeneration,
	}
	opt := replay.Options{}
	if saved != nil && saved.Problem.ID == p.ID {
		res.RunID = saved.RunID
		res.MaxGenerations = saved.Evolution.MaxGenerations
		res.MsPerGeneration = saved.Replay.MsPerGeneration
		opt.UploadedSkeleton = saved.Model.Code
		opt.PreferUploaded = saved.PreferUploaded()
	}
	if opt.UploadedSkeleton == "" && p.Skeleton != "" {
		b, err := os.ReadFile(cat.Resolve(p.Skeleton))
		if err != nil {
			return nil, fmt.Errorf("skeleton for %s: %w", p.ID, err)
		}
		opt.UploadedSkeleton = string(b)
	}
	if req.MaxGenerations != nil {
		res.MaxGenerations = *req.MaxGenerations
	}
	opt.MaxGenerations = res.MaxGenerations

	res.Replay, err = replay.Build(run, opt)
	if err != nil {
		return nil, err
	}
	return res, nil
}
