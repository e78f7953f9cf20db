package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Action is a strategy the search may apply to a model.
type Action struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Desc    string `json:"desc"`
	Enabled bool   `json:"enabled"`
}

// Actions lists every strategy action. Only cut injection is available.
var Actions = []Action{
	{ID: "add_cuts", Label: "Add Valid Inequalities / Cuts", Desc: "Inject learned cuts into the model", Enabled: true},
	{ID: "warm_start", Label: "Warm-start / MIP Starts", Desc: "Seed the solver with good primal solutions"},
	{ID: "param_tuning", Label: "Parameter Tuning", Desc: "Tune solver parameters for your objective"},
	{ID: "reformulate", Label: "Reformulation", Desc: "Change formulation (extended vars, perspective, etc.)"},
	{ID: "branching", Label: "Branching / Search Control", Desc: "Custom branching priorities & callbacks"},
	{ID: "heuristics", Label: "Primal Heuristics", Desc: "Add or improve heuristics to find incumbents"},
}

// FindAction looks an action up by id.
func FindAction(id string) (Action, bool) {
	for _, a := range Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// EnabledActions returns the ids of all enabled actions.
func EnabledActions() []string {
	var ids []string
	for _, a := range Actions {
		if a.Enabled {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Param describes one target parameter.
type Param struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Numeric bool   `json:"numeric"`
	Default string `json:"default"`
}

var params = map[string]Param{
	"time_limit_s":       {ID: "time_limit_s", Label: "Time limit (seconds)", Numeric: true, Default: "600"},
	"time_cap_s":         {ID: "time_cap_s", Label: "Hard time cap (seconds)", Numeric: true, Default: "3600"},
	"target_gap":         {ID: "target_gap", Label: "Target gap", Numeric: true, Default: "0.01"},
	"node_cap":           {ID: "node_cap", Label: "Node cap", Numeric: true, Default: "50000"},
	"custom_metric_name": {ID: "custom_metric_name", Label: "Metric name", Default: "my_metric"},
}

// Target is an optimization objective for the search.
type Target struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Params []string `json:"params"`
}

// Targets lists the supported objectives; the first is the default.
var Targets = []Target{
	{ID: "gap_within_time", Label: "Reduce gap within a time budget", Params: []string{"time_limit_s", "target_gap"}},
	{ID: "time_to_gap", Label: "Reach a target gap as fast as possible", Params: []string{"target_gap", "time_cap_s"}},
	{ID: "reduce_nodes", Label: "Reduce nodes to reach a fixed gap", Params: []string{"target_gap", "node_cap"}},
	{ID: "reduce_pdi", Label: "Reduce Primal-Dual Integral (PDI)", Params: []string{"time_limit_s"}},
	{ID: "improve_bound", Label: "Improve best bound quickly", Params: []string{"time_limit_s"}},
	{ID: "custom", Label: "Custom metric (advanced)", Params: []string{"custom_metric_name"}},
}

// FindTarget looks a target up by id.
func FindTarget(id string) (Target, bool) {
	for _, t := range Targets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

// TargetParamSpecs returns the parameter descriptions of a target.
func TargetParamSpecs(t Target) []Param {
	out := make([]Param, 0, len(t.Params))
	for _, id := range t.Params {
		out = append(out, params[id])
	}
	return out
}

// ErrUnknownTarget is returned for a target id not in Targets.
var ErrUnknownTarget = errors.New("unknown target")

// TargetParams returns the parameters of target filled from values, falling
// back to defaults. Numeric parameters are parsed as float64; values for
// parameters the target does not take are ignored.
func TargetParams(target string, values map[string]string) (map[string]any, error) {
	t, ok := FindTarget(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	out := make(map[string]any, len(t.Params))
	for _, id := range t.Params {
		p := params[id]
		raw, ok := values[id]
		if !ok || raw == "" {
			raw = p.Default
		}
		if !p.Numeric {
			out[id] = raw
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("target %s: parameter %s: %w", target, id, err)
		}
		out[id] = f
	}
	return out, nil
}

// Problem is one entry of the problem catalog.
type Problem struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Tagline  string `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	Template string `json:"template" yaml:"template"`
	RunJSON  string `json:"runJson,omitempty" yaml:"runJson,omitempty"`
	Skeleton string `json:"skeleton,omitempty" yaml:"skeleton,omitempty"`
}

// DisplayName falls back to the id.
func (p Problem) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// RunJSONPath defaults to data/<id>.json.
func (p Problem) RunJSONPath() string {
	if p.RunJSON != "" {
		return p.RunJSON
	}
	return "data/" + p.ID + ".json"
}

// ErrUnknownProblem is returned for a problem id not in the catalog.
var ErrUnknownProblem = errors.New("unknown problem")

// Catalog is the list of demo problems. Relative paths resolve against Root.
type Catalog struct {
	Root     string    `json:"-" yaml:"-"`
	Problems []Problem `json:"problems" yaml:"problems"`
}

// LoadCatalog reads a YAML problem catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(c.Problems))
	for i, p := range c.Problems {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog %s: problem #%d has no id", path, i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate problem id %q", path, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	c.Root = filepath.Dir(path)
	return &c, nil
}

// Get looks a problem up by id.
func (c *Catalog) Get(id string) (Problem, error) {
	for _, p := range c.Problems {
		if p.ID == id {
			return p, nil
		}
	}
	return Problem{}, fmt.Errorf("%w: %q", ErrUnknownProblem, id)
}

// Resolve joins a catalog-relative path with Root.
func (c *Catalog) Resolve(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// ReadTemplate returns the template source of a problem.
func (c *Catalog) ReadTemplate(p Problem) (string, error) {
	b, err := os.ReadFile(c.Resolve(p.Template))
	if err != nil {
		return "", fmt.Errorf("template for %s: %w", p.ID, err)
	}
	return string(b), nil
}

// CatalogRef is a catalog that can be swapped while it is being read.
type CatalogRef struct {
	mu sync.RWMutex
	c  *Catalog
}

// NewCatalogRef wraps c.
func NewCatalogRef(c *Catalog) *CatalogRef { return &CatalogRef{c: c} }

// Load returns the current catalog.
func (r *CatalogRef) Load() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.c
}

// Store replaces the current catalog.
func (r *CatalogRef) Store(c *Catalog) {
	r.mu.Lock()
	r.c = c
	r.mu.Unlock()
}
