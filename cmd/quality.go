package cmd

import (
	"github.com/KaramelBytes/cannalytics/internal/quality"
	"github.com/KaramelBytes/cannalytics/internal/report"
	"github.com/spf13/cobra"
)

var (
	qualityFormat string
	qualityOut    string
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Report completeness, null cells and coverage per dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(qualityFormat); err != nil {
			return err
		}
		b, c, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		metrics := quality.ComputeAll(cacheFor(c), b.Tables())
		text := report.Quality(metrics)
		if isJSON(qualityFormat) {
			text, err = jsonText(map[string]any{"datasets": metrics, "summary": quality.Overall(metrics)})
			if err != nil {
				return err
			}
		}
		return output(cmd, qualityOut, text)
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.Flags().StringVar(&qualityFormat, "format", "md", "output format: md|json")
	qualityCmd.Flags().StringVarP(&qualityOut, "output", "o", "", "write the report to a file")
}
