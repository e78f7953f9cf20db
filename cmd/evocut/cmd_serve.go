package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evocut/internal/config"
	"evocut/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Starts the HTTP API on the configured address. With --watch the problem
catalog is reloaded whenever its file changes. Stops gracefully on SIGINT or
SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.settings.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				a.settings.Watch = watch
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			a.logger.Info("Catalog loaded", zap.String("path", a.settings.Catalog), zap.Int("problems", len(cat.Problems)))

			srv := server.New(server.Options{
				Settings:    a.settings,
				Catalog:     config.NewCatalogRef(cat),
				CatalogPath: a.settings.Catalog,
				Store:       a.store(),
				Logger:      a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.logger.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides settings)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the catalog when it changes")
	return cmd
}
