// Package bundle exports a prepared replay as a reproducible ZIP archive:
//
//	manifest.json     what the archive holds
//	README.md         human overview (no timestamps)
//	skeleton.py       the resolved skeleton
//	generations.json  per-generation KPIs, ideas and cuts
//	summary.json      final result against the baseline
//	cuts/gen_NNN.patch  skeleton -> skeleton+cut, one per generation; a
//	                    generation without a cut gets the empty cut block
//
// Entries carry a fixed timestamp and are written in a stable order, so the
// same replay always yields the same bytes.
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"evocut/internal/population"
	"evocut/internal/replay"
	"evocut/internal/skeleton"
	"evocut/internal/textutil"
)

// Format identifies replay archives in manifest.json.
const (
	Format        = "evocut-replay"
	FormatVersion = 1
)

// Meta describes the run being exported.
type Meta struct {
	ProblemID   string `json:"problemId"`
	ProblemName string `json:"problemName,omitempty"`
	RunID       string `json:"runId,omitempty"`
}

// Manifest is written as manifest.json.
type Manifest struct {
	Format           string                    `json:"format"`
	Version          int                       `json:"version"`
	Meta             Meta                      `json:"meta"`
	Generations      int                       `json:"generations"`
	SkeletonSource   population.SkeletonSource `json:"skeletonSource"`
	SkeletonStrategy skeleton.Strategy         `json:"skeletonStrategy,omitempty"`
	Files            []string                  `json:"files"`
}

// GenEntry is one element of generations.json.
type GenEntry struct {
	Gen      int          `json:"gen"`
	Best     float64      `json:"best"`
	Mean     float64      `json:"mean"`
	Std      float64      `json:"std"`
	Idea     string       `json:"idea"`
	Cut      string       `json:"cut"`
	Top      []replay.Row `json:"top"`
	Patch    string       `json:"patch,omitempty"`
	Added    int          `json:"added"`
	Removed  int          `json:"removed"`
	Oversize bool         `json:"oversize,omitempty"`
}

// WriteReplay writes r to a ZIP at path, creating parent directories.
func WriteReplay(path string, r *replay.Replay, meta Meta) error {
	var buf bytes.Buffer
	if err := Encode(&buf, r, meta); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Encode writes r as a ZIP archive to w.
func Encode(w io.Writer, r *replay.Replay, meta Meta) error {
	if r == nil {
		return replay.ErrNoRun
	}
	entries, man, err := replayEntries(r, meta)
	if err != nil {
		return err
	}
	mentry, err := jsonEntry("manifest.json", man)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, e := range append([]entry{mentry}, entries...) {
		if err := writeEntry(zw, e); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// replayEntries builds every entry except the manifest, sorted by name.
func replayEntries(r *replay.Replay, meta Meta) ([]entry, Manifest, error) {
	used := map[string]struct{}{"manifest.json": {}}
	add := func(list []entry, name string, data []byte) []entry {
		return append(list, entry{name: uniqueName(SanitizePath(name), used), data: data})
	}

	var entries []entry
	gens := make([]GenEntry, 0, len(r.Frames))
	for _, f := range r.Frames {
		g := GenEntry{
			Gen: f.Gen, Best: f.Best, Mean: f.Mean, Std: f.Std,
			Idea: f.Idea, Cut: f.Cut, Top: f.Top,
			Added: f.Added, Removed: f.Removed, Oversize: f.Oversize,
		}
		if f.Diff != "" {
			entries = add(entries, PatchName(f.Gen), []byte(textutil.EnsureTrailingLF(f.Diff)))
			g.Patch = entries[len(entries)-1].name
		}
		gens = append(gens, g)
	}

	entries = add(entries, "skeleton.py", []byte(textutil.EnsureTrailingLF(r.Skeleton.Code)))
	for _, j := range []struct {
		name string
		v    any
	}{
		{"generations.json", gens},
		{"summary.json", r.Summary},
	} {
		e, err := jsonEntry(j.name, j.v)
		if err != nil {
			return nil, Manifest{}, err
		}
		entries = add(entries, e.name, e.data)
	}

	readme, err := renderReadme(meta, r)
	if err != nil {
		return nil, Manifest{}, err
	}
	entries = add(entries, "README.md", readme)

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	man := Manifest{
		Format:           Format,
		Version:          FormatVersion,
		Meta:             meta,
		Generations:      len(r.Frames),
		SkeletonSource:   r.Skeleton.Source,
		SkeletonStrategy: r.Skeleton.Strategy,
		Files:            make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		man.Files = append(man.Files, e.name)
	}
	return entries, man, nil
}

// PatchName is the archive path of a generation's patch.
func PatchName(gen int) string {
	return fmt.Sprintf("cuts/gen_%03d.patch", gen)
}

const readmeTemplate = `# {{.Title}}

Replay of {{.Generations}} generation(s){{if .RunID}} from run {{.RunID}}{{end}}.

Baseline: {{.Baseline}}
Final best: {{.Final}}{{if .Relative}} ({{.Relative}}){{end}}

## Layout
- manifest.json: archive contents and skeleton provenance ({{.Source}}{{if .Strategy}}, {{.Strategy}}{{end}}).
- skeleton.py: the model without any learned cut.
- generations.json: per-generation fitness, best idea, best cut and top individuals.
- summary.json: final best against the baseline.
- cuts/gen_NNN.patch: unified diff from skeleton.py to the skeleton with that generation's cut injected.
`

var readmeTmpl = template.Must(template.New("readme").Parse(readmeTemplate))

func renderReadme(meta Meta, r *replay.Replay) ([]byte, error) {
	title := strings.TrimSpace(meta.ProblemName)
	if title == "" {
		title = strings.TrimSpace(meta.ProblemID)
	}
	if title == "" {
		title = "evocut replay"
	}
	ctx := struct {
		Title, RunID, Baseline, Final, Relative, Source, Strategy string
		Generations                                              int
	}{
		Title:       title,
		RunID:       meta.RunID,
		Baseline:    replay.FormatNumber(r.Summary.Baseline, 3),
		Final:       replay.FormatNumber(r.Summary.FinalBest, 3),
		Source:      string(r.Skeleton.Source),
		Strategy:    string(r.Skeleton.Strategy),
		Generations: len(r.Frames),
	}
	if r.Summary.RelImprovement != nil {
		ctx.Relative = replay.Percent(*r.Summary.RelImprovement)
	}
	var buf bytes.Buffer
	if err := readmeTmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("render README: %w", err)
	}
	return buf.Bytes(), nil
}
