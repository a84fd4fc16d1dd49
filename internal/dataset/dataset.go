// Package dataset loads the dispensary, density and sentiment tables and the
// county boundaries from a data directory and prepares them for analysis.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/cannalytics/internal/geo"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

// Dataset keys used across validation, quality and the API.
const (
	Dispensaries = "dispensaries"
	Density      = "density"
	Sentiment    = "tweet_sentiment"
)

// RequiredColumns lists the columns each dataset must carry after loading.
var RequiredColumns = map[string][]string{
	Dispensaries: {"County", "Year", "License Number", "Dispensary Name", "License Type"},
	Density:      {"County", "Dispensary_PerCapita", "Population"},
	Sentiment:    {"BERT_Sentiment", "County"},
}

// DateColumns are the sentiment date columns, in order of preference.
var DateColumns = []string{"Tweet_Date", "Created_At", "Date"}

// SyntheticStart is the first synthetic tweet date.
var SyntheticStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Files names the inputs inside the data directory.
type Files struct {
	Dispensaries string `mapstructure:"dispensaries_file" yaml:"dispensaries_file"`
	Density      string `mapstructure:"density_file" yaml:"density_file"`
	Sentiment    string `mapstructure:"sentiment_file" yaml:"sentiment_file"`
	Boundaries   string `mapstructure:"boundaries_file" yaml:"boundaries_file"`
}

// DefaultFiles returns the standard file names.
func DefaultFiles() Files {
	return Files{
		Dispensaries: "Dispensaries.csv",
		Density:      "Dispensary_Density.csv",
		Sentiment:    "Tweet_Sentiment.csv",
		Boundaries:   "California_County_Boundaries.geojson",
	}
}

func (f Files) withDefaults() Files {
	d := DefaultFiles()
	if f.Dispensaries == "" {
		f.Dispensaries = d.Dispensaries
	}
	if f.Density == "" {
		f.Density = d.Density
	}
	if f.Sentiment == "" {
		f.Sentiment = d.Sentiment
	}
	if f.Boundaries == "" {
		f.Boundaries = d.Boundaries
	}
	return f
}

// Bundle holds the loaded inputs. Tables are read-only after Load.
type Bundle struct {
	Dir          string
	Dispensaries *table.Table
	Density      *table.Table
	Sentiment    *table.Table
	Boundaries   *geo.Collection
	// Warnings are non-fatal conditions the caller should surface.
	Warnings []string
}

// Tables returns the three tables keyed by dataset name.
func (b *Bundle) Tables() map[string]*table.Table {
	return map[string]*table.Table{
		Dispensaries: b.Dispensaries,
		Density:      b.Density,
		Sentiment:    b.Sentiment,
	}
}

// Table returns one dataset by key.
func (b *Bundle) Table(name string) (*table.Table, bool) {
	t, ok := b.Tables()[name]
	return t, ok && t != nil
}

// Load reads every input from dir. All files are checked for existence
// before any is parsed.
func Load(dir string, files Files, opt table.Options) (*Bundle, error) {
	files = files.withDefaults()
	for _, name := range []string{files.Dispensaries, files.Density, files.Sentiment, files.Boundaries} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &FileMissingError{File: name, Path: p}
			}
			return nil, &LoadError{File: name, Err: err}
		}
	}

	b := &Bundle{Dir: dir}
	var err error
	if b.Dispensaries, err = b.load(dir, files.Dispensaries, Dispensaries, opt, DeriveYear); err != nil {
		return nil, err
	}
	if b.Density, err = b.load(dir, files.Density, Density, opt, nil); err != nil {
		return nil, err
	}
	if b.Sentiment, err = b.load(dir, files.Sentiment, Sentiment, opt, nil); err != nil {
		return nil, err
	}
	b.Sentiment, err = ConvertSentiment(b.Sentiment)
	if err != nil {
		return nil, &LoadError{File: files.Sentiment, Err: err}
	}
	var warn string
	b.Sentiment, warn, err = PrepareDates(b.Sentiment)
	if err != nil {
		return nil, &LoadError{File: files.Sentiment, Err: err}
	}
	if warn != "" {
		b.Warnings = append(b.Warnings, warn)
	}

	b.Boundaries, err = geo.Load(filepath.Join(dir, files.Boundaries))
	if err != nil {
		return nil, &LoadError{File: files.Boundaries, Err: err}
	}
	return b, nil
}

func (b *Bundle) load(dir, file, key string, opt table.Options, prepare func(*table.Table) (*table.Table, error)) (*table.Table, error) {
	t, err := table.Load(filepath.Join(dir, file), opt)
	if err != nil {
		return nil, &LoadError{File: file, Err: err}
	}
	t = t.Renamed(key)
	if t.Empty() {
		b.Warnings = append(b.Warnings, file+" is empty")
	}
	if prepare != nil {
		if t, err = prepare(t); err != nil {
			return nil, &LoadError{File: file, Err: err}
		}
	}
	if missing := MissingColumns(t, RequiredColumns[key]); len(missing) > 0 {
		return nil, &MissingColumnsError{File: file, Missing: missing, Required: RequiredColumns[key]}
	}
	return t, nil
}

// MissingColumns returns the required columns t lacks, in required order.
func MissingColumns(t *table.Table, required []string) []string {
	var out []string
	for _, c := range required {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// DeriveYear adds a Year column from License_Date when Year is absent.
// Unparseable dates give a null year.
func DeriveYear(t *table.Table) (*table.Table, error) {
	if t.Has("Year") || !t.Has("License_Date") {
		return t, nil
	}
	dates, _ := t.Column("License_Date")
	years := make([]table.Value, len(dates))
	for i, v := range dates {
		if ts, ok := v.Time(); ok {
			years[i] = table.IntValue(int64(ts.Year()))
		}
	}
	return t.WithColumn("Year", years)
}

// ConvertSentimentScore maps a raw score onto [-1, 1]. Numbers pass through;
// star ratings such as "4 stars" become (stars-3)/2; anything else is 0.
func ConvertSentimentScore(v table.Value) float64 {
	if v.IsNull() {
		return 0
	}
	switch v.Kind() {
	case table.KindInt, table.KindFloat:
		f, _ := v.Float()
		return f
	case table.KindString:
		s := v.Text()
		if !strings.Contains(strings.ToLower(s), "star") {
			return 0
		}
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return 0
		}
		stars, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0
		}
		return (stars - 3) / 2
	}
	return 0
}

// ConvertSentiment rewrites BERT_Sentiment as numeric scores.
func ConvertSentiment(t *table.Table) (*table.Table, error) {
	vals, ok := t.Column("BERT_Sentiment")
	if !ok {
		return t, nil
	}
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		out[i] = table.FloatValue(ConvertSentimentScore(v))
	}
	return t.WithColumn("BERT_Sentiment", out)
}

// PrepareDates parses the known date columns and guarantees a Tweet_Date
// column. A column with any unparseable value is left as read. Without any
// date column, daily dates from SyntheticStart are generated and a warning
// is returned.
func PrepareDates(t *table.Table) (*table.Table, string, error) {
	present := false
	for _, col := range DateColumns {
		vals, ok := t.Column(col)
		if !ok {
			continue
		}
		present = true
		parsed, ok := parseDates(vals)
		if !ok {
			continue
		}
		var err error
		if t, err = t.WithColumn(col, parsed); err != nil {
			return nil, "", err
		}
	}
	if !present {
		dates := make([]table.Value, t.NumRows())
		for i := range dates {
			dates[i] = table.DateValue(SyntheticStart.AddDate(0, 0, i))
		}
		warn := fmt.Sprintf("No date column found in %s. Using synthetic dates starting from %s. "+
			"Temporal analysis may not reflect actual dates.", t.Name(), SyntheticStart.Format(table.DateLayout))
		nt, err := t.WithColumn("Tweet_Date", dates)
		if err != nil {
			return nil, "", err
		}
		return nt, warn, nil
	}
	if !t.Has("Tweet_Date") {
		for _, col := range DateColumns[1:] {
			if vals, ok := t.Column(col); ok {
				nt, err := t.WithColumn("Tweet_Date", vals)
				return nt, "", err
			}
		}
	}
	return t, "", nil
}

func parseDates(vals []table.Value) ([]table.Value, bool) {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		ts, ok := v.Time()
		if !ok {
			return nil, false
		}
		out[i] = table.DateValue(ts)
	}
	return out, true
}
