package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/cannalytics/internal/table"
)

func col(name string, vals ...table.Value) *table.Table {
	rows := make([][]table.Value, len(vals))
	for i, v := range vals {
		rows[i] = []table.Value{v}
	}
	t, err := table.New("t", []string{name}, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func ints(xs ...int64) []table.Value {
	out := make([]table.Value, len(xs))
	for i, x := range xs {
		out[i] = table.IntValue(x)
	}
	return out
}

func TestPositive_ZeroDisallowed(t *testing.T) {
	tb := col("Population", ints(0, 1, 2, 3)...)
	r := Check(tb, "Population", Positive{AllowZero: false}, "")
	if r.Valid || r.InvalidCount != 1 {
		t.Fatalf("result = %+v", r)
	}
	if len(r.InvalidValues) != 1 || !r.InvalidValues[0].Equal(table.IntValue(0)) {
		t.Fatalf("invalid values = %v", r.InvalidValues)
	}
	if r.Message != "1 values in 'Population' are not positive (> 0)" {
		t.Errorf("message = %q", r.Message)
	}
	if !strings.HasPrefix(r.String(), "✗ FAIL [Population]") {
		t.Errorf("String() = %q", r.String())
	}
}

func TestPositive_ZeroAllowed(t *testing.T) {
	tb := col("Dispensary_PerCapita", ints(0, 1, 2)...)
	r := Check(tb, "Dispensary_PerCapita", Positive{AllowZero: true}, "Dispensary Density")
	if !r.Valid || r.InvalidCount != 0 {
		t.Fatalf("result = %+v", r)
	}
	if r.Message != "All values in 'Dispensary Density' are non-negative (≥ 0)" {
		t.Errorf("message = %q", r.Message)
	}
}

func TestRange_AllInside(t *testing.T) {
	tb := col("x", ints(1, 2, 3)...)
	r := Check(tb, "x", Range{Min: Ptr(1), Max: Ptr(3)}, "")
	if !r.Valid || r.InvalidCount != 0 {
		t.Fatalf("result = %+v", r)
	}
	if r.Message != "All values in 'x' within range (≥ 1 and ≤ 3)" {
		t.Errorf("message = %q", r.Message)
	}
	r = Check(tb, "x", Range{}, "")
	if !r.Valid || !strings.Contains(r.Message, "any value") {
		t.Errorf("unbounded = %+v", r)
	}
}

func TestMissingColumn(t *testing.T) {
	tb := col("x", ints(1)...)
	for _, rule := range []Rule{Positive{}, Range{}, Year{}, Sentiment{}, Percentage{}} {
		r := Check(tb, "Population", rule, "")
		if r.Valid || r.InvalidCount != 0 || !strings.Contains(r.Message, "not found") {
			t.Errorf("%s: result = %+v", rule.Type(), r)
		}
	}
}

func TestSamplesBoundedAndCoercionExcluded(t *testing.T) {
	vals := append(ints(-1, -2, -3, -4, -5, -6, -7), table.StringValue("n/a"), table.Null(), table.StringValue("-8"))
	tb := col("v", vals...)
	r := Check(tb, "v", Positive{AllowZero: true}, "")
	if r.InvalidCount != 8 {
		t.Fatalf("invalid count = %d, want 8", r.InvalidCount)
	}
	if len(r.InvalidValues) != MaxSamples {
		t.Errorf("samples = %d, want %d", len(r.InvalidValues), MaxSamples)
	}
	if r.Uncoerced != 1 {
		t.Errorf("uncoerced = %d, want 1", r.Uncoerced)
	}
	// only uncoercible values: valid with a nonzero Uncoerced count
	r = Check(col("v", table.StringValue("abc")), "v", Positive{}, "")
	if !r.Valid || r.Uncoerced != 1 {
		t.Errorf("uncoercible only = %+v", r)
	}
}

func TestYearDefaultsAndLabel(t *testing.T) {
	old := now
	now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { now = old }()

	tb := col("Year", ints(1999, 2010, 2025, 2026)...)
	r := Check(tb, "Year", Year{}, "")
	if r.InvalidCount != 2 {
		t.Fatalf("invalid = %d, want 2 (%+v)", r.InvalidCount, r)
	}
	if r.Message != "2 values in 'Year' outside range (≥ 2000 and ≤ 2025)" {
		t.Errorf("message = %q", r.Message)
	}
}

func TestSentimentAndPercentage(t *testing.T) {
	tb := col("BERT_Sentiment", table.FloatValue(-1), table.FloatValue(0.5), table.FloatValue(1.5))
	r := Check(tb, "BERT_Sentiment", Sentiment{}, "")
	if r.InvalidCount != 1 || r.Message != "1 values in 'Sentiment Score' outside range (≥ -1.0 and ≤ 1.0)" {
		t.Errorf("sentiment = %+v", r)
	}
	tb = col("Share", table.FloatValue(101), table.FloatValue(50))
	r = Check(tb, "Share", Percentage{}, "")
	if r.InvalidCount != 1 || r.Message != "1 values in 'Share (percentage)' outside range (≥ 0.0 and ≤ 100.0)" {
		t.Errorf("percentage = %+v", r)
	}
	r = Check(tb, "Share", Sentiment{MinScore: -0.5, MaxScore: 200}, "")
	if !r.Valid || !strings.Contains(r.Message, "(≥ -0.5 and ≤ 200.0)") {
		t.Errorf("custom sentiment = %+v", r)
	}
}

func TestCheckDoesNotMutate(t *testing.T) {
	tb := col("v", ints(-1, 2)...)
	before := tb.Fingerprint()
	Check(tb, "v", Positive{}, "")
	if tb.Fingerprint() != before {
		t.Fatalf("table mutated")
	}
}

func TestValidateDataset(t *testing.T) {
	tb := col("Population", ints(10, 20)...)
	res := ValidateDataset(tb, "Density", []Config{
		{Column: "Population", Rule: Positive{}},
		{Rule: Positive{}},
		{Column: "Population"},
	})
	if res.Valid {
		t.Fatalf("dataset must fail")
	}
	if len(res.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(res.Results))
	}
	if !res.Results[0].Valid {
		t.Errorf("first rule should pass")
	}
	if res.Results[1].Column != "unknown" || res.Results[1].Message != "Validation configuration missing 'column' parameter" {
		t.Errorf("missing column config = %+v", res.Results[1])
	}
	if len(res.Failed()) != 2 {
		t.Errorf("failed = %d", len(res.Failed()))
	}

	ok := ValidateDataset(tb, "Density", []Config{{Column: "Population", Rule: Positive{}}})
	if !ok.Valid {
		t.Errorf("all-pass dataset reported invalid")
	}
}

func TestValidateAll_DefaultPresets(t *testing.T) {
	density, _ := table.New("density", []string{"Population", "Dispensary_PerCapita"}, [][]table.Value{
		{table.IntValue(1000), table.FloatValue(0)},
		{table.IntValue(0), table.FloatValue(2.5)},
	})
	disp := col("Year", ints(2018, 2019)...)
	got := ValidateAll(map[string]*table.Table{"density": density, "dispensaries": disp}, DefaultPresets())
	if len(got) != 2 {
		t.Fatalf("datasets = %v", SortedKeys(got))
	}
	if got["density"].Valid || got["density"].Results[0].InvalidCount != 1 {
		t.Errorf("density = %+v", got["density"])
	}
	if !got["density"].Results[1].Valid {
		t.Errorf("per-capita zero should be allowed")
	}
	if !got["dispensaries"].Valid {
		t.Errorf("dispensaries = %+v", got["dispensaries"])
	}
	if AllValid(got) {
		t.Errorf("AllValid should be false")
	}
}

func TestLoadPresets(t *testing.T) {
	doc := `
density:
  label: Density
  rules:
    - type: range
      column: Dispensary_PerCapita
      min_value: 0
      max_value: 50
      display_name: Per Capita
    - type: percentage
      column: Share
tweet_sentiment:
  rules:
    - type: sentiment
      column: BERT_Sentiment
      min_score: -2
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	d := p["density"]
	if d.Label != "Density" || len(d.Rules) != 2 {
		t.Fatalf("density preset = %+v", d)
	}
	rg, ok := d.Rules[0].Rule.(Range)
	if !ok || *rg.Min != 0 || *rg.Max != 50 || d.Rules[0].DisplayName != "Per Capita" {
		t.Errorf("range rule = %+v", d.Rules[0])
	}
	s := p["tweet_sentiment"]
	if s.Label != "tweet_sentiment" {
		t.Errorf("label fallback = %q", s.Label)
	}
	if sr := s.Rules[0].Rule.(Sentiment); sr.MinScore != -2 || sr.MaxScore != 1 {
		t.Errorf("sentiment rule = %+v", sr)
	}

	p, err = ParsePresets([]byte("density:\n  rules:\n    - type: positive\n      column: Dispensary_PerCapita\n" +
		"strict:\n  rules:\n    - type: positive\n      column: Dispensary_PerCapita\n      allow_zero: false\n"))
	if err != nil {
		t.Fatalf("ParsePresets: %v", err)
	}
	zeros := col("Dispensary_PerCapita", ints(0, 2)...)
	if got := ValidateDataset(zeros, "density", p["density"].Rules); !got.Valid {
		t.Errorf("positive rule without allow_zero should accept 0: %+v", got)
	}
	if got := ValidateDataset(zeros, "strict", p["strict"].Rules); got.Valid {
		t.Errorf("allow_zero: false should reject 0: %+v", got)
	}

	if _, err := ParsePresets([]byte("x:\n  rules:\n    - type: bogus\n      column: a\n")); err == nil {
		t.Errorf("expected unknown type error")
	}
	merged := DefaultPresets().Merge(p)
	if len(merged["density"].Rules) != 2 || len(merged["dispensaries"].Rules) != 1 {
		t.Errorf("merge = %+v", merged)
	}
}
