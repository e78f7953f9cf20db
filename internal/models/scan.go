package models

import (
	"context"
	"errors"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"evocut/internal/evolve"
)

// Result is the outcome of checking one file.
type Result struct {
	File
	Problem string          `json:"problem"`
	Ranges  []evolve.Region `json:"ranges,omitempty"`
	// Err is set when the file has no evolve block or could not be read.
	Err string `json:"error,omitempty"`
}

// OK reports whether the file parsed.
func (r Result) OK() bool { return r.Err == "" }

// Scan parses every file concurrently. Per-file failures are recorded in the
// result; only context cancellation aborts the scan.
func Scan(ctx context.Context, files []File) ([]Result, error) {
	out := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = check(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func check(f File) Result {
	res := Result{File: f}
	b, err := os.ReadFile(f.AbsPath)
	if err != nil {
		res.Err = err.Error()
		res.Problem = evolve.ProblemCustom
		return res
	}
	content := string(b)
	res.Problem = evolve.DetectProblem(f.RelPath, content)
	doc, err := evolve.Parse(content)
	if err != nil {
		if errors.Is(err, evolve.ErrMissingEvolveTags) {
			res.Err = "no evolve block"
		} else {
			res.Err = err.Error()
		}
		return res
	}
	res.Ranges = doc.Regions
	return res
}
