package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/filter"
	"github.com/KaramelBytes/cannalytics/internal/report"
	"github.com/spf13/cobra"
)

var aggregateKinds = []string{
	"growth", "density", "county-sentiment", "monthly-sentiment", "correlation", "top-counties", "license-mix",
}

var (
	aggFormat string
	aggOut    string
	aggTop    int
	aggMetric string
	aggLimit  int
	aggSel    filterFlags
)

var aggregateCmd = &cobra.Command{
	Use:       "aggregate <" + strings.Join(aggregateKinds, "|") + ">",
	Short:     "Compute one aggregate over the filtered data",
	Args:      cobra.ExactArgs(1),
	ValidArgs: aggregateKinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := strings.ToLower(args[0])
		source, ok := aggregateSource(kind)
		if !ok {
			return fmt.Errorf("unknown aggregate %q (use %s)", args[0], strings.Join(aggregateKinds, ", "))
		}
		if err := checkFormat(aggFormat); err != nil {
			return err
		}
		spec, err := aggSel.resolve(cmd)
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

		full, _ := b.Table(source)
		t := filter.Apply(full, spec)
		summary := filter.Summary(spec, defaultsFor(c))
		if t.Empty() {
			return output(cmd, aggOut, report.NoData(summary, kind))
		}

		var data any
		var text string
		switch kind {
		case "growth":
			rows := calc.YearlyGrowth(t)
			data, text = rows, report.Growth(rows)
		case "density":
			rows := calc.RegionalDensity(t)
			data, text = rows, report.Section("regional density", aggregate.RegionTable(rows), 0)
		case "county-sentiment":
			rows := calc.CountySentiments(t)
			data, text = rows, report.Section("county sentiment", aggregate.CountySentimentTable(rows), aggLimit)
		case "monthly-sentiment":
			rows := calc.MonthlySentiments(t)
			data = map[string]any{"months": rows, "volume_growth": aggregate.VolumeGrowth(rows)}
			text = report.Monthly(rows)
		case "correlation":
			density := filter.Apply(b.Density, spec)
			corr := calc.MarketCorrelation(t, density)
			data, text = corr, report.Correlation(corr, aggLimit)
		case "top-counties":
			top := calc.TopCounties(t, aggTop, aggMetric)
			data, text = top, report.Section(fmt.Sprintf("top %d counties", aggTop), top, 0)
		case "license-mix":
			rows := calc.LicenseTypeDistribution(t)
			data, text = rows, report.Section("license types", aggregate.DistributionTable(rows), 0)
		}

		if isJSON(aggFormat) {
			text, err = jsonText(map[string]any{"filters": summary, "rows": t.NumRows(), "data": data})
			if err != nil {
				return err
			}
		} else {
			text = summary + "\n\n" + text
		}
		return output(cmd, aggOut, text)
	},
}

// aggregateSource names the dataset an aggregate is computed from.
func aggregateSource(kind string) (string, bool) {
	switch kind {
	case "growth", "license-mix":
		return dataset.Dispensaries, true
	case "density", "top-counties":
		return dataset.Density, true
	case "county-sentiment", "monthly-sentiment", "correlation":
		return dataset.Sentiment, true
	}
	return "", false
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggFormat, "format", "md", "output format: md|json")
	aggregateCmd.Flags().StringVarP(&aggOut, "output", "o", "", "write the result to a file")
	aggregateCmd.Flags().IntVar(&aggTop, "top", 10, "rows kept by top-counties")
	aggregateCmd.Flags().StringVar(&aggMetric, "metric", aggregate.ColPerCapita, "numeric column ranked by top-counties")
	aggregateCmd.Flags().IntVar(&aggLimit, "limit", 0, "rows rendered in Markdown tables (0 = all)")
	aggSel.register(aggregateCmd)
}
