package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/filter"
	"github.com/KaramelBytes/cannalytics/internal/report"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/utils"
	"github.com/spf13/cobra"
)

var (
	filterDataset string
	filterOut     string
	filterLimit   int
	filterSel     filterFlags
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Apply year, license type and county filters to one dataset",
	Long: `Filters one dataset and prints the selection summary and a preview of the
matching rows. With -o the full result is written as CSV.

Datasets: dispensaries, density, tweet_sentiment (alias: sentiment).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := filterSel.resolve(cmd)
		if err != nil {
			return err
		}
		name, err := datasetName(filterDataset)
		if err != nil {
			return err
		}
		b, c, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		t, _ := b.Table(name)
		out := filter.Apply(t, spec)
		summary := filter.Summary(spec, defaultsFor(c))

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, summary)
		fmt.Fprintf(w, "%d of %d %s\n", out.NumRows(), t.NumRows(), utils.Plural(t.NumRows(), "row", "rows"))
		if out.Empty() {
			fmt.Fprint(w, report.NoData(summary, name))
			return nil
		}
		if filterOut != "" {
			var buf bytes.Buffer
			if err := table.WriteCSV(&buf, out); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(filterOut, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(w, "✓ Wrote %s\n", filterOut)
			return nil
		}
		fmt.Fprint(w, report.Table(out, filterLimit))
		return nil
	},
}

// datasetName maps user spellings to a bundle key.
func datasetName(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case dataset.Dispensaries, "dispensary", "licenses":
		return dataset.Dispensaries, nil
	case dataset.Density:
		return dataset.Density, nil
	case dataset.Sentiment, "sentiment", "tweets":
		return dataset.Sentiment, nil
	}
	return "", fmt.Errorf("unknown dataset %q (use %s, %s or %s)", s, dataset.Dispensaries, dataset.Density, dataset.Sentiment)
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVar(&filterDataset, "dataset", dataset.Dispensaries, "dataset to filter")
	filterCmd.Flags().StringVarP(&filterOut, "output", "o", "", "write the filtered rows as CSV")
	filterCmd.Flags().IntVar(&filterLimit, "limit", 20, "rows to preview")
	filterSel.register(filterCmd)
}
