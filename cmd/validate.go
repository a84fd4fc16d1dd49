package cmd

import (
	"fmt"

	"github.com/KaramelBytes/cannalytics/internal/report"
	"github.com/KaramelBytes/cannalytics/internal/validation"
	"github.com/spf13/cobra"
)

var (
	validateRules  string
	validateFormat string
	validateOut    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every dataset against its validation rules",
	Long: `Runs the preset rules (year bounds, positive population and density, sentiment
range) against each loaded dataset. A YAML rules file replaces the presets of the
datasets it names. Exits non-zero when any dataset fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(validateFormat); err != nil {
			return err
		}
		b, c, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		presets, err := presetsFor(c, validateRules)
		if err != nil {
			return err
		}
		results := validation.ValidateAll(b.Tables(), presets)
		valid := validation.AllValid(results)

		text := report.Validation(results)
		if isJSON(validateFormat) {
			if text, err = jsonText(map[string]any{"valid": valid, "datasets": results}); err != nil {
				return err
			}
		}
		if err := output(cmd, validateOut, text); err != nil {
			return err
		}
		if !valid {
			failed := 0
			for _, r := range results {
				if !r.Valid {
					failed++
				}
			}
			return fmt.Errorf("%d dataset(s) failed validation", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateRules, "rules", "", "YAML rules file (overrides rules_file)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "md", "output format: md|json")
	validateCmd.Flags().StringVarP(&validateOut, "output", "o", "", "write the report to a file")
}
