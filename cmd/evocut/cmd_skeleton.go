package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evocut/internal/skeleton"
	"evocut/internal/textutil"
)

func (a *app) skeletonCmd() *cobra.Command {
	var fullPath, cutPath, outPath string
	cmd := &cobra.Command{
		Use:   "skeleton",
		Short: "Remove a cut from evolved model code",
		Long: `Prints the skeleton of an evolved model: its full code with the added cut
removed. Removal tries an exact match first, then the cut's lines in order
(tolerating indentation and blank lines), then each cut line on its own.

Example:
  evocut skeleton --full gen_007.py --cut cut.py -o skeleton.py`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, err := readInput(cmd, fullPath)
			if err != nil {
				return err
			}
			cut := ""
			if cutPath != "" {
				if cut, err = readInput(cmd, cutPath); err != nil {
					return err
				}
			}
			code, strategy := skeleton.DeriveWithStrategy(full, cut)
			a.logger.Info("Skeleton derived",
				zap.String("strategy", string(strategy)),
				zap.Int("lines", len(textutil.SplitLines(code))),
			)
			out := textutil.EnsureTrailingLF(code)
			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			return os.WriteFile(outPath, []byte(out), 0o644)
		},
	}
	cmd.Flags().StringVar(&fullPath, "full", "-", "full evolved code (\"-\" for stdin)")
	cmd.Flags().StringVar(&cutPath, "cut", "", "cut text to remove")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the skeleton here instead of stdout")
	return cmd
}
