package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evocut/internal/evolve"
	"evocut/internal/models"
)

func (a *app) evolveCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "evolve <model.py | dir | ->",
		Short: "Strip <evolve> markers and report editable regions",
		Long: `Parses a model whose editable part is wrapped in <evolve> ... </evolve>.
The cleaned code is printed with the markers replaced by sentinel comments.
Given a directory, every Python file under it is checked and summarized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
				return a.evolveDir(cmd, args[0], asJSON)
			}
			return a.evolveFile(cmd, args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func (a *app) evolveFile(cmd *cobra.Command, path string, asJSON bool) error {
	content, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	name := ""
	if path != "-" {
		name = filepath.Base(path)
	}
	problem := evolve.DetectProblem(name, content)
	doc, err := evolve.Parse(content)
	if err != nil {
		return err
	}
	a.logger.Info("Evolve blocks parsed", zap.String("problem", problem), zap.Int("regions", len(doc.Regions)))

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Problem string `json:"problem"`
			evolve.Document
		}{problem, doc})
	}
	_, err = fmt.Fprintln(out, doc.Code)
	return err
}

func (a *app) evolveDir(cmd *cobra.Command, dir string, asJSON bool) error {
	files, err := models.Collect(dir, models.Options{MaxFileBytes: a.settings.MaxUploadBytes})
	if err != nil {
		return err
	}
	results, err := models.Scan(cmd.Context(), files)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	a.logger.Info("Models scanned", zap.Int("files", len(results)), zap.Int("failed", failed))

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSIZE\tPROBLEM\tREGIONS\tSTATUS")
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = r.Err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.RelPath, humanize.IBytes(uint64(r.Size)), r.Problem, len(r.Ranges), status)
	}
	return tw.Flush()
}
