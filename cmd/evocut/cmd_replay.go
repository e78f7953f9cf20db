package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evocut/internal/bundle"
	"evocut/internal/demo"
	"evocut/internal/population"
	"evocut/internal/replay"
)

// replaySource selects the run to replay: a run JSON file or a catalog
// problem.
type replaySource struct {
	problem        string
	maxGenerations int
	skeletonPath   string
}

func (rs *replaySource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rs.problem, "problem", "", "replay the recorded run of a catalog problem")
	cmd.Flags().IntVar(&rs.maxGenerations, "max-generations", -1, "keep generations 0..N (negative keeps all)")
	cmd.Flags().StringVar(&rs.skeletonPath, "skeleton", "", "show this file as the skeleton instead of deriving one")
}

// loadReplay builds the replay and its archive metadata.
func (a *app) loadReplay(cmd *cobra.Command, rs *replaySource, args []string) (*replay.Replay, bundle.Meta, error) {
	switch {
	case rs.problem != "" && len(args) > 0:
		return nil, bundle.Meta{}, errors.New("give either a run file or --problem, not both")
	case rs.problem != "":
		return a.loadProblemReplay(cmd, rs)
	case len(args) == 1:
	default:
		return nil, bundle.Meta{}, errors.New("a run file or --problem is required")
	}

	run, err := population.Load(args[0])
	if err != nil {
		return nil, bundle.Meta{}, err
	}
	opt := replay.Options{MaxGenerations: rs.maxGenerations}
	if rs.skeletonPath != "" {
		if opt.UploadedSkeleton, err = readInput(cmd, rs.skeletonPath); err != nil {
			return nil, bundle.Meta{}, err
		}
		opt.PreferUploaded = true
	}
	r, err := replay.Build(run, opt)
	if err != nil {
		return nil, bundle.Meta{}, err
	}
	return r, bundle.Meta{ProblemID: "custom"}, nil
}

func (a *app) loadProblemReplay(cmd *cobra.Command, rs *replaySource) (*replay.Replay, bundle.Meta, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, bundle.Meta{}, err
	}
	saved, err := a.store().Load()
	if err != nil {
		return nil, bundle.Meta{}, err
	}
	req := demo.Request{ProblemID: rs.problem}
	if cmd.Flags().Changed("max-generations") {
		req.MaxGenerations = &rs.maxGenerations
	}
	res, err := demo.Build(cat, saved, req)
	if err != nil {
		return nil, bundle.Meta{}, err
	}
	return res.Replay, res.BundleMeta(), nil
}

func (a *app) replayCmd() *cobra.Command {
	rs := &replaySource{}
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "replay [run.json]",
		Short: "Print a recorded run generation by generation",
		Long: `Replays an evolutionary run: per generation the best, mean and standard
deviation of fitness, the best idea and cut, and the top of the population,
followed by the improvement over the baseline.

Examples:
  evocut replay runs/tsp.json --max-generations 10
  evocut replay --problem tsp --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, meta, err := a.loadReplay(cmd, rs, args)
			if err != nil {
				return err
			}
			a.logger.Info("Replay built",
				zap.String("problem", meta.ProblemID),
				zap.Int("generations", len(r.Frames)),
				zap.String("skeletonSource", string(r.Skeleton.Source)),
			)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			if _, err := fmt.Fprintf(out, "skeleton: %s", r.Skeleton.Source); err != nil {
				return err
			}
			if r.Skeleton.Strategy != "" {
				fmt.Fprintf(out, " (%s)", r.Skeleton.Strategy)
			}
			fmt.Fprintln(out)
			for _, f := range r.Frames {
				if err := replay.WriteFrame(out, f); err != nil {
					return err
				}
			}
			return replay.WriteSummary(out, r.Summary)
		},
	}
	rs.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the prepared frames as JSON")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	rs := &replaySource{}
	var outPath string
	cmd := &cobra.Command{
		Use:   "export [run.json]",
		Short: "Write a replay as a reproducible ZIP bundle",
		Long: `Exports a replay with the skeleton, per-generation KPIs and one unified
patch per generation showing the cut injected into the skeleton.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, meta, err := a.loadReplay(cmd, rs, args)
			if err != nil {
				return err
			}
			if err := bundle.WriteReplay(outPath, r, meta); err != nil {
				return err
			}
			a.logger.Info("Replay exported", zap.String("path", outPath), zap.Int("generations", len(r.Frames)))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return err
		},
	}
	rs.bind(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output ZIP path")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
