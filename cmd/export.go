package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/export"
	"github.com/KaramelBytes/cannalytics/internal/filter"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
	exportSel    filterFlags
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every derived table to an XLSX workbook, SQLite database or CSV directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOut == "" {
			return fmt.Errorf("--output is required")
		}
		spec, err := exportSel.resolve(cmd)
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
		tables := derivedTables(calc, b, spec)
		m, err := export.Write(exportFormat, exportOut, tables)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d tables to %s (%s)\n", len(m.Tables), m.Path, strings.Join(m.Names(), ", "))
		fmt.Fprintf(cmd.OutOrStdout(), "Run: %s\n", m.RunID)
		return nil
	},
}

// derivedTables computes every aggregate over the filtered bundle.
func derivedTables(calc *aggregate.Calculator, b *dataset.Bundle, spec filter.Spec) []*table.Table {
	disp := filter.Apply(b.Dispensaries, spec)
	density := filter.Apply(b.Density, spec)
	sent := filter.Apply(b.Sentiment, spec)
	return []*table.Table{
		aggregate.GrowthTable(calc.YearlyGrowth(disp)),
		aggregate.DistributionTable(calc.LicenseTypeDistribution(disp)),
		aggregate.RegionTable(calc.RegionalDensity(density)),
		calc.TopCounties(density, 10, aggregate.ColPerCapita).Renamed("top_counties"),
		aggregate.CountySentimentTable(calc.CountySentiments(sent)),
		aggregate.MonthlyTable(calc.MonthlySentiments(sent)),
		aggregate.CorrelationTable(calc.MarketCorrelation(sent, density)),
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "export format: "+strings.Join(export.Formats, "|"))
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (directory for csv)")
	exportSel.register(exportCmd)
}
