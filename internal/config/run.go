// Package config holds the demo run configuration, the catalogs it is built
// from (problems, strategy actions, optimization targets), its on-disk store,
// and the application settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Model sources.
const (
	SourceUploaded = "uploaded"
	SourceRunJSON  = "run_json"
)

// Defaults for a new run.
const (
	DefaultLanguage        = "pyomo"
	DefaultMaxGenerations  = 20
	DefaultMsPerGeneration = 1100
)

// RunConfig is the saved configuration of one demo run.
type RunConfig struct {
	RunID     string       `json:"runId" yaml:"runId" validate:"required"`
	CreatedAt string       `json:"createdAt" yaml:"createdAt" validate:"required"`
	Problem   ProblemRef   `json:"problem" yaml:"problem"`
	Model     ModelConfig  `json:"model" yaml:"model"`
	Strategy  StrategyCfg  `json:"strategy" yaml:"strategy"`
	Objective ObjectiveCfg `json:"objective" yaml:"objective"`
	Evolution EvolutionCfg `json:"evolution" yaml:"evolution"`
	Replay    ReplayCfg    `json:"replay" yaml:"replay"`
}

// ProblemRef points at the problem a run was configured for.
type ProblemRef struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Name         string `json:"name" yaml:"name"`
	TemplatePath string `json:"templatePath,omitempty" yaml:"templatePath,omitempty"`
	RunJSONPath  string `json:"runJsonPath,omitempty" yaml:"runJsonPath,omitempty"`
}

// ModelConfig is the user's model code and where the skeleton comes from.
type ModelConfig struct {
	Language string `json:"language" yaml:"language"`
	Code     string `json:"code" yaml:"code"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty" validate:"omitempty,oneof=uploaded run_json"`
}

// StrategyCfg lists the selected strategy actions.
type StrategyCfg struct {
	Actions []string `json:"actions" yaml:"actions" validate:"dive,required"`
}

// ObjectiveCfg is the optimization target with its parameters.
type ObjectiveCfg struct {
	Target string         `json:"target" yaml:"target" validate:"required"`
	Params map[string]any `json:"params" yaml:"params"`
}

// EvolutionCfg bounds the replayed generations.
type EvolutionCfg struct {
	MaxGenerations int `json:"maxGenerations" yaml:"maxGenerations" validate:"min=0"`
}

// ReplayCfg paces the replay.
type ReplayCfg struct {
	MsPerGeneration int `json:"msPerGeneration" yaml:"msPerGeneration" validate:"min=0"`
}

// PreferUploaded reports whether the uploaded code should be shown as the
// skeleton instead of deriving one from the run.
func (c *RunConfig) PreferUploaded() bool {
	return c.Model.Source == SourceUploaded && c.Model.Code != ""
}

// MsPerGeneration returns the pacing as a duration.
func (c *RunConfig) MsPerGeneration() time.Duration {
	return time.Duration(c.Replay.MsPerGeneration) * time.Millisecond
}

// NewRunID returns a fresh "<prefix>_<uuid>" identifier.
func NewRunID(prefix string) string {
	if prefix == "" {
		prefix = "run"
	}
	return prefix + "_" + uuid.NewString()
}

// NewRunConfig builds a configuration for problem p with every enabled
// action selected and the default target.
func NewRunConfig(p Problem, code string) *RunConfig {
	target := Targets[0]
	params, _ := TargetParams(target.ID, nil)
	return &RunConfig{
		RunID:     NewRunID("demo"),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Problem: ProblemRef{
			ID:           p.ID,
			Name:         p.DisplayName(),
			TemplatePath: p.Template,
			RunJSONPath:  p.RunJSONPath(),
		},
		Model:     ModelConfig{Language: DefaultLanguage, Code: code, Source: SourceRunJSON},
		Strategy:  StrategyCfg{Actions: EnabledActions()},
		Objective: ObjectiveCfg{Target: target.ID, Params: params},
		Evolution: EvolutionCfg{MaxGenerations: DefaultMaxGenerations},
		Replay:    ReplayCfg{MsPerGeneration: DefaultMsPerGeneration},
	}
}

var validate = validator.New()

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid run config")

// Validate checks struct tags, then that every action exists and is enabled
// and the target is known.
func (c *RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, formatValidationError(err))
	}
	for _, id := range c.Strategy.Actions {
		a, ok := FindAction(id)
		if !ok {
			return fmt.Errorf("%w: unknown action %q", ErrInvalidConfig, id)
		}
		if !a.Enabled {
			return fmt.Errorf("%w: action %q is not available yet", ErrInvalidConfig, id)
		}
	}
	if _, ok := FindTarget(c.Objective.Target); !ok {
		return fmt.Errorf("%w: unknown target %q", ErrInvalidConfig, c.Objective.Target)
	}
	return nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
