package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/quality"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/validation"
)

func TestQuality(t *testing.T) {
	tb, _ := table.New("density", []string{"County", "Population"}, [][]table.Value{
		{table.StringValue("Kern"), table.IntValue(1)},
		{table.StringValue("Inyo"), table.Null()},
	})
	out := Quality(map[string]quality.Metrics{"density": quality.Compute(tb)})
	for _, want := range []string{"[DATA QUALITY SUMMARY]", "[DATASET: density]", "Completeness: 75.0%", "| Population | 1 | 50.00 | 50.00 |", "[INSIGHTS]", "Data Quality Issues"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestValidation(t *testing.T) {
	tb, _ := table.New("d", []string{"Population"}, [][]table.Value{
		{table.IntValue(0)}, {table.IntValue(5)}, {table.StringValue("x")},
	})
	res := validation.ValidateDataset(tb, "Density", []validation.Config{
		{Column: "Population", Rule: validation.Positive{}},
	})
	out := Validation(map[string]validation.DatasetResult{"density": res})
	for _, want := range []string{"✗ Density (1 check)", "✗ FAIL [Population]", "e.g., 0", "1 non-numeric value skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestTable_TruncatesRowsAndEscapes(t *testing.T) {
	tb, _ := table.New("x", []string{"a|b"}, [][]table.Value{
		{table.FloatValue(1.23456)}, {table.Null()}, {table.StringValue("z")},
	})
	out := Table(tb, 2)
	if !strings.Contains(out, "| a/b |") || !strings.Contains(out, "| 1.235 |") || !strings.Contains(out, "… 1 more rows") {
		t.Errorf("table =\n%s", out)
	}
}

func TestGrowthAndMonthly(t *testing.T) {
	g := 50.0
	out := Growth([]aggregate.YearGrowth{{Year: 2019, Licenses: 2, Dispensaries: 2}, {Year: 2020, Licenses: 3, Dispensaries: 3, GrowthRate: &g}})
	if !strings.Contains(out, "| 2019 | 2 | 2 | n/a |") || !strings.Contains(out, "| 2020 | 3 | 3 | +50.0% |") {
		t.Errorf("growth =\n%s", out)
	}
	s := 0.5
	m := Monthly([]aggregate.MonthlySentiment{
		{Date: time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC), Sentiment: &s, Volume: 2, PositiveRatio: &s},
		{Date: time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC), Volume: 0},
	})
	if !strings.Contains(m, "| 2021-01-31 | 0.50 | 2 | 0.50 | n/a |") || !strings.Contains(m, "| 2021-02-28 | n/a | 0 | n/a | -100.0% |") {
		t.Errorf("monthly =\n%s", m)
	}
}

func TestCorrelationUndefined(t *testing.T) {
	out := Correlation(aggregate.Correlation{Pearson: math.NaN()}, 0)
	if !strings.Contains(out, "[MARKET CORRELATION]") || !strings.Contains(out, "undefined") {
		t.Errorf("correlation =\n%s", out)
	}
}

func TestNoDataAndFailure(t *testing.T) {
	out := NoData("Showing data for year 2019", "Market Overview")
	if !strings.Contains(out, "[NO DATA AVAILABLE FOR MARKET OVERVIEW]") || !strings.Contains(out, "Current filters: Showing data for year 2019") {
		t.Errorf("no data =\n%s", out)
	}
	f := Failure(&dataset.FileMissingError{File: "Dispensaries.csv", Path: "/data/Dispensaries.csv"})
	if !strings.Contains(f, "How to fix this:") || !strings.Contains(f, "1. Check that Dispensaries.csv exists") {
		t.Errorf("failure =\n%s", f)
	}
}
