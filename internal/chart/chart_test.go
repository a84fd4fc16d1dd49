package chart

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
)

func TestGrowthSaveAndPNG(t *testing.T) {
	p, err := Growth([]aggregate.YearGrowth{{Year: 2019, Dispensaries: 3}, {Year: 2020, Dispensaries: 5}})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "charts", "growth.png")
	if err := Save(p, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("chart file missing: %v", err)
	}
	var buf bytes.Buffer
	if err := WritePNG(p, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("not a PNG")
	}
}

func TestMonthlyDensityCorrelation(t *testing.T) {
	s := 0.4
	months := []aggregate.MonthlySentiment{
		{Date: time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC), Sentiment: &s, Volume: 1},
		{Date: time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC), Sentiment: &s, Volume: 2},
	}
	if _, err := Monthly(months); err != nil {
		t.Errorf("Monthly: %v", err)
	}
	if _, err := Density([]aggregate.RegionDensity{{Region: "Northern California", AverageDensity: 2}, {Region: "Central California"}}); err != nil {
		t.Errorf("Density: %v", err)
	}
	x1, x2 := 1.0, 2.0
	c := aggregate.Correlation{Pearson: math.NaN(), Rows: []aggregate.CorrelationRow{
		{CountySentiment: aggregate.CountySentiment{County: "Kern", AverageSentiment: 0.1}, PerCapita: &x1},
		{CountySentiment: aggregate.CountySentiment{County: "Inyo", AverageSentiment: 0.2}, PerCapita: &x2},
	}}
	if _, err := Correlation(c); err != nil {
		t.Errorf("Correlation: %v", err)
	}
}

func TestNoData(t *testing.T) {
	if _, err := Growth(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Growth(nil) err = %v", err)
	}
	if _, err := Monthly([]aggregate.MonthlySentiment{{Volume: 0}}); !errors.Is(err, ErrNoData) {
		t.Errorf("Monthly err = %v", err)
	}
	if _, err := Density(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Density err = %v", err)
	}
	if _, err := Correlation(aggregate.Correlation{Pearson: math.NaN()}); !errors.Is(err, ErrNoData) {
		t.Errorf("Correlation err = %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{"Growth": "growth", "monthly": "monthly-sentiment", "regions": "density", " correlation ": "correlation"}
	for in, want := range cases {
		if got, ok := Normalize(in); !ok || got != want {
			t.Errorf("Normalize(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := Normalize("pie"); ok {
		t.Error("pie should be unknown")
	}
}
