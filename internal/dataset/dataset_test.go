package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/cannalytics/internal/table"
)

const boundaries = `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":{"NAME":"Kern"}}]}`

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func fixture() map[string]string {
	return map[string]string{
		"Dispensaries.csv": "County,License_Date,License Number,Dispensary Name,License Type\n" +
			"Kern County,2020-03-01,L1,A,Retail\n" +
			"Fresno,2021-06-15,L2,B,Microbusiness\n",
		"Dispensary_Density.csv": "County,Dispensary_PerCapita,Population\nKern,2.5,900000\n",
		"Tweet_Sentiment.csv":    "County,BERT_Sentiment\nKern,5 stars\nKern,1 star\nFresno,\n",
		"California_County_Boundaries.geojson": boundaries,
	}
}

func TestLoad_Fixture(t *testing.T) {
	dir := writeFixture(t, fixture())
	b, err := Load(dir, Files{}, table.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if y, ok := b.Dispensaries.Value(1, "Year").Int(); !ok || y != 2021 {
		t.Errorf("derived year = %v", b.Dispensaries.Value(1, "Year"))
	}
	scores, _ := b.Sentiment.Column("BERT_Sentiment")
	want := []float64{1, -1, 0}
	for i, w := range want {
		if got, _ := scores[i].Float(); got != w {
			t.Errorf("score[%d] = %v, want %v", i, got, w)
		}
	}
	d, ok := b.Sentiment.Value(2, "Tweet_Date").Time()
	if !ok || !d.Equal(SyntheticStart.AddDate(0, 0, 2)) {
		t.Errorf("synthetic date = %v", d)
	}
	if len(b.Warnings) != 1 || !strings.Contains(b.Warnings[0], "synthetic dates") {
		t.Errorf("warnings = %v", b.Warnings)
	}
	if len(b.Boundaries.Features) != 1 {
		t.Errorf("boundaries not loaded")
	}
	if tb, ok := b.Table(Density); !ok || tb.Name() != Density {
		t.Errorf("density table = %v", tb)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	files := fixture()
	delete(files, "Dispensary_Density.csv")
	_, err := Load(writeFixture(t, files), Files{}, table.DefaultOptions())
	var fm *FileMissingError
	if !errors.As(err, &fm) || fm.File != "Dispensary_Density.csv" {
		t.Fatalf("err = %v", err)
	}
	var rec Recoverable
	if !errors.As(err, &rec) || len(rec.Recovery()) == 0 {
		t.Errorf("missing recovery steps")
	}
}

func TestLoad_MissingColumns(t *testing.T) {
	files := fixture()
	files["Dispensary_Density.csv"] = "County,Population\nKern,1\n"
	_, err := Load(writeFixture(t, files), Files{}, table.DefaultOptions())
	var mc *MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("err = %v", err)
	}
	if len(mc.Missing) != 1 || mc.Missing[0] != "Dispensary_PerCapita" {
		t.Errorf("missing = %v", mc.Missing)
	}
}

func TestLoad_BadBoundaries(t *testing.T) {
	files := fixture()
	files["California_County_Boundaries.geojson"] = `{"type":"Feature"}`
	_, err := Load(writeFixture(t, files), Files{}, table.DefaultOptions())
	var le *LoadError
	if !errors.As(err, &le) || le.File != "California_County_Boundaries.geojson" {
		t.Fatalf("err = %v", err)
	}
}

func TestConvertSentimentScore(t *testing.T) {
	cases := []struct {
		in   table.Value
		want float64
	}{
		{table.Null(), 0},
		{table.FloatValue(0.25), 0.25},
		{table.IntValue(1), 1},
		{table.StringValue("4 stars"), 0.5},
		{table.StringValue("3 Stars"), 0},
		{table.StringValue("1 star"), -1},
		{table.StringValue("many stars"), 0},
		{table.StringValue("positive"), 0},
	}
	for _, c := range cases {
		if got := ConvertSentimentScore(c.in); got != c.want {
			t.Errorf("ConvertSentimentScore(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestPrepareDates(t *testing.T) {
	s := table.StringValue
	tb, _ := table.New("tweets", []string{"Created_At", "Date"}, [][]table.Value{
		{s("2021-05-01"), s("yesterday")},
		{s("2021-05-02"), s("today")},
	})
	out, warn, err := PrepareDates(tb)
	if err != nil || warn != "" {
		t.Fatalf("PrepareDates: %q, %v", warn, err)
	}
	d, ok := out.Value(1, "Tweet_Date").Time()
	if !ok || !d.Equal(time.Date(2021, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Tweet_Date = %v", out.Value(1, "Tweet_Date"))
	}
	if out.Value(0, "Date").Kind() != table.KindString {
		t.Errorf("unparseable column should be left as read")
	}
	if tb.Has("Tweet_Date") {
		t.Errorf("source mutated")
	}
}
