package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/cannalytics/internal/config"
	"github.com/KaramelBytes/cannalytics/internal/report"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagDataDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "cannalytics",
	Short: "Cannalytics: validate, filter and summarize California cannabis retail data",
	Long: `Cannalytics loads the dispensary license, density and tweet sentiment datasets
plus county boundaries, checks their quality, applies year / license type / county
filters, and computes growth, density and sentiment aggregates as reports, charts,
exports or a JSON API.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, report.Failure(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cannalytics/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the input files (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config load it again and report the error
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	applyFlags(c)
	cfg = c
}

// currentConfig returns the loaded config, loading it when the command ran
// without OnInitialize (tests drive rootCmd directly).
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		applyFlags(cfg)
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlags(c)
	cfg = c
	return c, nil
}

func applyFlags(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		c.DataDir = flagDataDir
	}
	if f.Changed("debug") {
		c.Debug = debug
	}
	level := slog.LevelWarn
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
