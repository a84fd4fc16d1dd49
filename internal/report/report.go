// Package report renders quality, validation and aggregate results as
// plain-text Markdown for the terminal or a file.
package report

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/quality"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/utils"
	"github.com/KaramelBytes/cannalytics/internal/validation"
)

// MaxCellWidth caps rendered cell text.
const MaxCellWidth = 60

var insightIcon = map[string]string{"ok": "✓", "warn": "⚠", "fail": "✗"}

// Quality renders per-dataset metrics followed by the overall summary.
func Quality(metrics map[string]quality.Metrics) string {
	var b strings.Builder
	s := quality.Overall(metrics)
	b.WriteString("[DATA QUALITY SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Datasets: %d\n", s.Datasets))
	b.WriteString(fmt.Sprintf("Total records: %d\n", s.TotalRecords))
	b.WriteString(fmt.Sprintf("Average completeness: %.1f%%\n", s.AverageCompleteness))
	b.WriteString(fmt.Sprintf("Null cells: %d\n", s.TotalNullCells))

	for _, name := range quality.SortedNames(metrics) {
		m := metrics[name]
		b.WriteString(fmt.Sprintf("\n[DATASET: %s]\n", name))
		b.WriteString(fmt.Sprintf("Records: %d\n", m.TotalRecords))
		b.WriteString(fmt.Sprintf("Completeness: %.1f%%\n", m.Completeness))
		if m.UniqueCounties != nil {
			b.WriteString(fmt.Sprintf("Counties: %d\n", *m.UniqueCounties))
		}
		if m.YearRange != "" {
			b.WriteString(fmt.Sprintf("Years: %s\n", m.YearRange))
		}
		if len(m.Columns) > 0 {
			b.WriteString("| Column | Missing | Missing % | Complete % |\n| --- | --- | --- | --- |\n")
			for _, c := range m.Columns {
				b.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f |\n", cell(c.Name), c.NullCount, c.NullPct, c.Completeness))
			}
		}
	}
	if len(s.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, in := range s.Insights {
			b.WriteString(fmt.Sprintf("%s %s: %s\n", insightIcon[in.Level], in.Title, in.Message))
		}
	}
	return b.String()
}

// Validation renders every dataset's rule outcomes.
func Validation(results map[string]validation.DatasetResult) string {
	var b strings.Builder
	b.WriteString("[VALIDATION]\n")
	if len(results) == 0 {
		b.WriteString("No datasets validated\n")
		return b.String()
	}
	for i, key := range validation.SortedKeys(results) {
		d := results[key]
		if i > 0 {
			b.WriteString("\n")
		}
		status := "✓"
		if !d.Valid {
			status = "✗"
		}
		b.WriteString(fmt.Sprintf("%s %s (%d %s)\n", status, d.Dataset, len(d.Results), utils.Plural(len(d.Results), "check", "checks")))
		for _, r := range d.Results {
			b.WriteString("  " + r.String() + "\n")
			if len(r.InvalidValues) > 0 {
				samples := make([]string, len(r.InvalidValues))
				for j, v := range r.InvalidValues {
					samples[j] = v.String()
				}
				b.WriteString("    e.g., " + strings.Join(samples, ", ") + "\n")
			}
			if r.Uncoerced > 0 {
				b.WriteString(fmt.Sprintf("    %d non-numeric %s skipped\n", r.Uncoerced, utils.Plural(r.Uncoerced, "value", "values")))
			}
		}
	}
	return b.String()
}

// Table renders up to maxRows rows of t as a Markdown table; maxRows <= 0
// renders every row.
func Table(t *table.Table, maxRows int) string {
	var b strings.Builder
	cols := t.Columns()
	if len(cols) == 0 {
		return "(no columns)\n"
	}
	b.WriteString("| ")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(cell(c))
	}
	b.WriteString(" |\n|")
	b.WriteString(strings.Repeat(" --- |", len(cols)))
	b.WriteString("\n")
	n := t.NumRows()
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	for r := 0; r < n; r++ {
		b.WriteString("| ")
		for i, v := range t.Row(r) {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cell(format(v)))
		}
		b.WriteString(" |\n")
	}
	if n < t.NumRows() {
		b.WriteString(fmt.Sprintf("… %d more rows\n", t.NumRows()-n))
	}
	return b.String()
}

func format(v table.Value) string {
	switch v.Kind() {
	case table.KindNull:
		return ""
	case table.KindFloat:
		f, _ := v.Float()
		return fmt.Sprintf("%.4g", f)
	}
	return v.Text()
}

func cell(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
	return utils.Truncate(s, MaxCellWidth)
}

// Section renders an aggregate table under a heading.
func Section(title string, t *table.Table, maxRows int) string {
	return fmt.Sprintf("[%s]\n%s", strings.ToUpper(title), Table(t, maxRows))
}

// Correlation renders the joined rows and the coefficient.
func Correlation(c aggregate.Correlation, maxRows int) string {
	var b strings.Builder
	b.WriteString(Section("market correlation", aggregate.CorrelationTable(c), maxRows))
	if c.Defined() {
		b.WriteString(fmt.Sprintf("Pearson r (density ~ sentiment): %.3f\n", c.Pearson))
	} else {
		b.WriteString("Pearson r: undefined (fewer than two matched counties or no variance)\n")
	}
	return b.String()
}

// Growth renders yearly growth with rates as percentages.
func Growth(rows []aggregate.YearGrowth) string {
	var b strings.Builder
	b.WriteString("[YEARLY GROWTH]\n| Year | Licenses | Dispensaries | Growth |\n| --- | --- | --- | --- |\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("| %d | %d | %d | %s |\n", r.Year, r.Licenses, r.Dispensaries, pct(r.GrowthRate)))
	}
	return b.String()
}

// Monthly renders monthly sentiment with month-over-month volume growth.
func Monthly(rows []aggregate.MonthlySentiment) string {
	var b strings.Builder
	growth := aggregate.VolumeGrowth(rows)
	b.WriteString("[MONTHLY SENTIMENT]\n| Month | Sentiment | Volume | Positive % | Volume growth |\n| --- | --- | --- | --- | --- |\n")
	for i, r := range rows {
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
			r.Date.Format(table.DateLayout), num(r.Sentiment), r.Volume, num(r.PositiveRatio), pct(growth[i])))
	}
	return b.String()
}

func num(p *float64) string {
	if p == nil || math.IsNaN(*p) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}

func pct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", *p)
}

// NoData explains an empty selection and how to widen it.
func NoData(filterSummary, page string) string {
	var b strings.Builder
	title := "No Data Available"
	if page != "" {
		title += " for " + page
	}
	b.WriteString("[" + strings.ToUpper(title) + "]\n")
	b.WriteString("The current filter combination excluded every row. Try:\n")
	b.WriteString("- Expand the year range (--years), or drop it to use the full span\n")
	b.WriteString("- Broaden the county selection, or pass --county \"All Counties\"\n")
	b.WriteString("- Include more license types (--license-type)\n")
	if filterSummary != "" {
		b.WriteString("Current filters: " + filterSummary + "\n")
	}
	return b.String()
}

// Failure renders an error with recovery steps when it carries them.
func Failure(err error) string {
	var b strings.Builder
	b.WriteString("✗ Error: " + err.Error() + "\n")
	var rec dataset.Recoverable
	if errors.As(err, &rec) {
		b.WriteString("How to fix this:\n")
		for i, step := range rec.Recovery() {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}
	return b.String()
}
