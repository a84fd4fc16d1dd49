package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/chart"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/filter"
	"github.com/KaramelBytes/cannalytics/internal/report"
	"github.com/spf13/cobra"
)

var (
	chartOut string
	chartSel filterFlags
)

var chartCmd = &cobra.Command{
	Use:   "chart <" + strings.Join(chart.Kinds, "|") + ">",
	Short: "Draw an aggregate as an image (png, svg or pdf by extension)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := chart.Normalize(args[0])
		if !ok {
			return fmt.Errorf("unknown chart %q (use %s)", args[0], strings.Join(chart.Kinds, ", "))
		}
		out := chartOut
		if out == "" {
			out = kind + ".png"
		}
		spec, err := chartSel.resolve(cmd)
		if err != nil {
			return err
		}
		b, c, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		regions, err := regionsFor(c)
		if err != nil {
			return err
		}
		calc := &aggregate.Calculator{Cache: cacheFor(c), Regions: regions}

		var source string
		switch kind {
		case "growth":
			source = dataset.Dispensaries
		case "density":
			source = dataset.Density
		default:
			source = dataset.Sentiment
		}
		full, _ := b.Table(source)
		t := filter.Apply(full, spec)
		p, err := chart.Build(kind, calc, t, filter.Apply(b.Density, spec))
		if errors.Is(err, chart.ErrNoData) {
			fmt.Fprint(cmd.OutOrStdout(), report.NoData(filter.Summary(spec, defaultsFor(c)), kind))
			return nil
		}
		if err != nil {
			return err
		}
		if err := chart.Save(p, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartOut, "output", "o", "", "image path (default <kind>.png)")
	chartSel.register(chartCmd)
}
