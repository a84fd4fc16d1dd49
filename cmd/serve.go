package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/cannalytics/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics as a read-only JSON API",
	Long: `Loads the datasets once and serves quality, validation, filter and aggregate
results under /api. Filters are query parameters: years or year_min/year_max,
license_type (repeatable), counties (repeatable or comma-separated) and county.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, c, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		presets, err := presetsFor(c, "")
		if err != nil {
			return err
		}
		regions, err := regionsFor(c)
		if err != nil {
			return err
		}
		addr := c.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(b, server.Options{
			Presets:  presets,
			Defaults: defaultsFor(c),
			Regions:  regions,
			Cache:    cacheFor(c),
			Logger:   slog.Default(),
			Debug:    c.Debug && !c.Production(),
		})
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (environment: %s)\n", addr, c.Environment)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides server_addr)")
}
