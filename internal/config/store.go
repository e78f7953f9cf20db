package config

// Store keeps the current run configuration as a single JSON blob:
//
//	<dir>/config.json
//
// Writes go to a temp file in the same directory and are renamed into place
// so readers never observe a partial file.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const configFileName = "config.json"

// ErrNoConfig is returned when an operation needs a saved configuration.
var ErrNoConfig = errors.New("no saved config")

// Fields Set refuses to change.
var readOnlyFields = []string{"runId", "createdAt"}

// Store persists one RunConfig under a directory. Save and Set are
// serialized so concurrent patches are not lost.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Path is the location of the blob.
func (s *Store) Path() string { return filepath.Join(s.dir, configFileName) }

// Load returns the saved configuration. A missing or unreadable blob yields
// (nil, nil) so callers can treat it as "not configured yet".
func (s *Store) Load() (*RunConfig, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg RunConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, nil
	}
	return &cfg, nil
}

// Save validates cfg and writes it atomically.
func (s *Store) Save(cfg *RunConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

func (s *Store) save(cfg *RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return s.write(append(b, '\n'))
}

// Set patches one field of the saved blob, addressed with a dotted path
// such as "replay.msPerGeneration" or "strategy.actions.0". The patched
// configuration must still validate. runId and createdAt are read-only.
func (s *Store) Set(path string, value any) (*RunConfig, error) {
	field, _, _ := strings.Cut(path, ".")
	for _, ro := range readOnlyFields {
		if field == ro {
			return nil, fmt.Errorf("%w: %s is read-only", ErrInvalidConfig, ro)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoConfig, s.Path())
		}
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrNoConfig, s.Path())
	}
	patched, err := sjson.SetBytes(raw, path, value)
	if err != nil {
		return nil, fmt.Errorf("%w: set %s: %v", ErrInvalidConfig, path, err)
	}
	var cfg RunConfig
	if err := json.Unmarshal(patched, &cfg); err != nil {
		return nil, fmt.Errorf("%w: set %s: %v", ErrInvalidConfig, path, err)
	}
	if err := s.save(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Clear removes the saved blob. Safe to call when nothing is saved.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) write(data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, ".tmp-"+configFileName+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.Path())
}
