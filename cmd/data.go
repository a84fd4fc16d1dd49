package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	cfgpkg "github.com/KaramelBytes/cannalytics/internal/config"
	"github.com/KaramelBytes/cannalytics/internal/county"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/filter"
	"github.com/KaramelBytes/cannalytics/internal/memo"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/utils"
	"github.com/KaramelBytes/cannalytics/internal/validation"
	"github.com/spf13/cobra"
)

// loadBundle reads every input named by the config and prints load warnings.
func loadBundle(cmd *cobra.Command) (*dataset.Bundle, *cfgpkg.Global, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("loading datasets", "dir", c.DataDir)
	b, err := dataset.Load(c.DataDir, c.Files, table.DefaultOptions())
	if err != nil {
		return nil, nil, err
	}
	for _, w := range b.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
	}
	return b, c, nil
}

// presetsFor returns the built-in rules overlaid with the rules file, if any.
func presetsFor(c *cfgpkg.Global, rulesFile string) (validation.Presets, error) {
	p := validation.DefaultPresets()
	if rulesFile == "" {
		rulesFile = c.RulesFile
	}
	if rulesFile == "" {
		return p, nil
	}
	custom, err := validation.LoadPresets(rulesFile)
	if err != nil {
		return nil, err
	}
	return p.Merge(custom), nil
}

func defaultsFor(c *cfgpkg.Global) filter.Defaults {
	d := filter.StandardDefaults()
	d.Years = filter.YearRange{Start: c.YearMin, End: c.YearMax}
	if len(c.LicenseTypes) > 0 {
		d.LicenseTypes = c.LicenseTypes
	}
	return d
}

func regionsFor(c *cfgpkg.Global) ([]county.Region, error) {
	r, ok := county.LookupRegions(c.Regions)
	if !ok {
		return nil, fmt.Errorf("unknown region set %q (use california or simple)", c.Regions)
	}
	return r, nil
}

func cacheFor(c *cfgpkg.Global) *memo.Cache { return memo.New(c.CacheTTL()) }

// filterFlags are the selection flags shared by filter, aggregate and chart.
type filterFlags struct {
	years        string
	licenseTypes []string
	counties     []string
	county       string
	specFile     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.years, "years", "", "year range, e.g. 2019-2022 or 2021")
	cmd.Flags().StringSliceVar(&f.licenseTypes, "license-type", nil, "license designation to keep (repeatable)")
	cmd.Flags().StringSliceVar(&f.counties, "counties", nil, "counties to keep (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.county, "county", "", `single county, or "All Counties"`)
	cmd.Flags().StringVar(&f.specFile, "spec", "", "YAML or JSON filter file; flags override its fields")
}

// resolve builds the Spec: the spec file first, then any flag that was set.
func (f *filterFlags) resolve(cmd *cobra.Command) (filter.Spec, error) {
	var s filter.Spec
	if f.specFile != "" {
		loaded, err := filter.LoadSpec(f.specFile)
		if err != nil {
			return s, err
		}
		s = loaded
	}
	fl := cmd.Flags()
	if fl.Changed("years") {
		yr, err := filter.ParseYears(f.years)
		if err != nil {
			return s, err
		}
		s.Years = &yr
	}
	if fl.Changed("license-type") {
		s.LicenseTypes = f.licenseTypes
	}
	if fl.Changed("counties") {
		s.Counties = f.counties
	}
	if fl.Changed("county") {
		c := f.county
		s.County = &c
	}
	return s, nil
}

// output writes text to path, or to the command's stdout when path is empty.
func output(cmd *cobra.Command, path, text string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if err := utils.SafeWriteFile(path, []byte(text)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}

func jsonText(v any) (string, error) {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "md", "markdown", "json":
		return nil
	}
	return fmt.Errorf("invalid --format %q (use md or json)", format)
}

func isJSON(format string) bool { return strings.EqualFold(format, "json") }
