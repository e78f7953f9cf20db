// Package main provides the evocut CLI: derive skeletons from evolved model
// code, parse <evolve> blocks in uploaded models, replay recorded runs
// generation by generation, export replays as ZIP bundles, manage the saved
// demo configuration, and serve all of it over HTTP.
//
// Usage:
//
//	evocut skeleton --full model.py --cut cut.py
//	evocut evolve model.py | DIR
//	evocut replay (RUN.json | --problem ID) [--max-generations N]
//	evocut export (RUN.json | --problem ID) -o out.zip
//	evocut config show|save|set|clear|options
//	evocut serve
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evocut/internal/config"
	"evocut/internal/logging"
)

// app holds state shared by all commands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	settings *config.Settings
	logger   *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "evocut",
		Short:         "Skeletons, evolve blocks and replays for evolved MILP cuts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "evocut.yaml", "settings file (YAML); missing file uses defaults")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides settings)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides settings)")

	root.AddCommand(
		a.skeletonCmd(),
		a.evolveCmd(),
		a.replayCmd(),
		a.exportCmd(),
		a.configCmd(),
		a.serveCmd(),
	)
	return root
}

// init loads settings and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	s, err := config.LoadSettings(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		s.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		s.LogFormat = a.logFormat
	}
	a.settings = s

	a.logger, err = logging.New(s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}
	a.logger.Debug("Settings loaded",
		zap.String("config", a.configPath),
		zap.String("catalog", s.Catalog),
		zap.String("dataDir", s.DataDir),
		zap.String("command", cmd.Name()),
	)
	return nil
}

func (a *app) store() *config.Store { return config.NewStore(a.settings.DataDir) }

func (a *app) catalog() (*config.Catalog, error) { return config.LoadCatalog(a.settings.Catalog) }

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
