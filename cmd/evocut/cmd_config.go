package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"evocut/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the saved demo run configuration",
	}
	cmd.AddCommand(a.configShowCmd(), a.configSaveCmd(), a.configSetCmd(), a.configClearCmd(), a.configOptionsCmd())
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.store().Load()
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("%w in %s", config.ErrNoConfig, a.settings.DataDir)
			}
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func (a *app) configSaveCmd() *cobra.Command {
	var (
		problemID      string
		codePath       string
		source         string
		actions        []string
		target         string
		params         map[string]string
		maxGenerations int
		msPerGen       int
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create and save a configuration for a catalog problem",
		Long: `Builds a fresh run configuration (new run id) for a problem from the
catalog, applies the given options and saves it.

Example:
  evocut config save --problem tsp --code model.py --source uploaded \
    --target time_to_gap --param target_gap=0.005`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			p, err := cat.Get(problemID)
			if err != nil {
				return err
			}
			code := ""
			if codePath != "" {
				if code, err = readInput(cmd, codePath); err != nil {
					return err
				}
			}

			cfg := config.NewRunConfig(p, code)
			if source != "" {
				cfg.Model.Source = source
			}
			if len(actions) > 0 {
				cfg.Strategy.Actions = actions
			}
			if target != "" || len(params) > 0 {
				if target == "" {
					target = cfg.Objective.Target
				}
				tp, err := config.TargetParams(target, params)
				if err != nil {
					return err
				}
				cfg.Objective = config.ObjectiveCfg{Target: target, Params: tp}
			}
			if cmd.Flags().Changed("max-generations") {
				cfg.Evolution.MaxGenerations = maxGenerations
			}
			if cmd.Flags().Changed("ms-per-generation") {
				cfg.Replay.MsPerGeneration = msPerGen
			}

			if err := a.store().Save(cfg); err != nil {
				return err
			}
			a.logger.Info("Config saved", zap.String("runId", cfg.RunID), zap.String("problem", p.ID))
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVar(&problemID, "problem", "", "catalog problem id")
	cmd.Flags().StringVar(&codePath, "code", "", "model code file (\"-\" for stdin)")
	cmd.Flags().StringVar(&source, "source", "", "skeleton source: uploaded or run_json")
	cmd.Flags().StringSliceVar(&actions, "action", nil, "strategy actions (default: all enabled)")
	cmd.Flags().StringVar(&target, "target", "", "optimization target id")
	cmd.Flags().StringToStringVar(&params, "param", nil, "target parameters, e.g. time_limit_s=300")
	cmd.Flags().IntVar(&maxGenerations, "max-generations", config.DefaultMaxGenerations, "generations to replay")
	cmd.Flags().IntVar(&msPerGen, "ms-per-generation", config.DefaultMsPerGeneration, "replay pacing in milliseconds")
	_ = cmd.MarkFlagRequired("problem")
	return cmd
}

func (a *app) configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Change one field of the saved configuration",
		Long: `Sets a field addressed by a dotted JSON path. The value is parsed as JSON
when it is valid JSON, otherwise it is stored as a string.

Examples:
  evocut config set replay.msPerGeneration 500
  evocut config set model.source uploaded
  evocut config set objective.params.target_gap 0.005`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, raw := args[0], args[1]
			var value any = raw
			if gjson.Valid(raw) {
				value = gjson.Parse(raw).Value()
			}
			cfg, err := a.store().Set(path, value)
			if err != nil {
				return err
			}
			a.logger.Info("Config updated", zap.String("path", path))
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func (a *app) configClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store().Clear()
		},
	}
}

func (a *app) configOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List strategy actions and optimization targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTION\tENABLED\tLABEL")
			for _, ac := range config.Actions {
				fmt.Fprintf(tw, "%s\t%t\t%s\n", ac.ID, ac.Enabled, ac.Label)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "TARGET\tPARAMS\tLABEL")
			for _, t := range config.Targets {
				var ps []string
				for _, p := range config.TargetParamSpecs(t) {
					ps = append(ps, p.ID+"="+p.Default)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, strings.Join(ps, ","), t.Label)
			}
			return tw.Flush()
		},
	}
}
