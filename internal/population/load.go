package population

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Load reads and parses a run history file.
func Load(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", path, err)
	}
	run, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return run, nil
}

// Parse decodes a run history document.
func Parse(data []byte) (*Run, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRun)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is %s, want object", ErrInvalidRun, root.Type)
	}

	run := &Run{
		Current:     individuals(root.Get("current_population")),
		BestFitness: optFloat(root.Get("best_fitness")),
	}
	root.Get("prev_populations").ForEach(func(_, entry gjson.Result) bool {
		rec := Record{}
		if entry.IsArray() {
			rec.Population = individuals(entry.Get("0"))
			rec.BestFitness = optFloat(entry.Get("1"))
		}
		run.Previous = append(run.Previous, rec)
		return true
	})

	for _, key := range []string{"best_indiv", "bestIndiv"} {
		if v := root.Get(key); v.IsObject() {
			ind := individual(v)
			run.BestIndiv = &ind
			break
		}
	}
	for _, key := range []string{"skeleton", "base_code", "model_code"} {
		if s := root.Get(key); s.Type == gjson.String && s.Str != "" {
			run.Skeleton = s.Str
			break
		}
	}
	return run, nil
}

func individuals(arr gjson.Result) []Individual {
	if !arr.IsArray() {
		return nil
	}
	items := arr.Array()
	out := make([]Individual, 0, len(items))
	for _, it := range items {
		out = append(out, individual(it))
	}
	return out
}

func individual(v gjson.Result) Individual {
	ind := Individual{}
	if f := v.Get("fitness"); f.Exists() && f.Type != gjson.Null {
		ind.Fitness = f.Float()
		ind.HasFitness = true
	}
	ch := v.Get("chromosome")
	ind.Chromosome = Chromosome{
		FullCode: str(ch.Get("full_code")),
		AddedCut: str(ch.Get("added_cut")),
		Idea:     str(ch.Get("idea")),
	}
	return ind
}

// str returns the string form of a scalar; null and missing are "".
func str(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

func optFloat(v gjson.Result) *float64 {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	f := v.Float()
	return &f
}
