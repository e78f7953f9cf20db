package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings configures the evocut process itself.
type Settings struct {
	Addr           string   `yaml:"addr"`
	DataDir        string   `yaml:"data_dir"`
	Catalog        string   `yaml:"catalog"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"` // "json" or "console"
	AllowedOrigins []string `yaml:"allowed_origins"`
	Watch          bool     `yaml:"watch"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		Addr:           "127.0.0.1:8080",
		DataDir:        ".evocut",
		Catalog:        "data/problems.yaml",
		LogLevel:       "info",
		LogFormat:      "console",
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		MaxUploadBytes: 2 << 20,
	}
}

// LoadSettings reads settings from a YAML file over the defaults. A missing
// file is not an error. Environment overrides are applied last.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("failed to parse settings: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}
	s.applyEnvOverrides()
	return s, nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("EVOCUT_ADDR"); v != "" {
		s.Addr = v
	}
	if v := os.Getenv("EVOCUT_DATA_DIR"); v != "" {
		s.DataDir = v
	}
	if v := os.Getenv("EVOCUT_CATALOG"); v != "" {
		s.Catalog = v
	}
	if v := os.Getenv("EVOCUT_LOG_LEVEL"); v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("EVOCUT_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		s.AllowedOrigins = origins
	}
}
