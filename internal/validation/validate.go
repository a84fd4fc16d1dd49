package validation

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/cannalytics/internal/table"
)

// MaxSamples bounds Result.InvalidValues.
const MaxSamples = 5

// Result is the outcome of one rule against one column.
type Result struct {
	Valid         bool          `json:"is_valid"`
	Column        string        `json:"column"`
	Message       string        `json:"message"`
	InvalidCount  int           `json:"invalid_count"`
	InvalidValues []table.Value `json:"invalid_values,omitempty"`
	// Uncoerced counts non-null values that could not be read as numbers.
	// They are excluded from both tallies and never affect Valid.
	Uncoerced int `json:"uncoerced,omitempty"`
}

func (r Result) String() string {
	status := "✓ PASS"
	if !r.Valid {
		status = "✗ FAIL"
	}
	return fmt.Sprintf("%s [%s]: %s", status, r.Column, r.Message)
}

// Check applies rule to column. displayName replaces the column name in the
// message when set.
func Check(t *table.Table, column string, rule Rule, displayName string) Result {
	c := compile(rule, column)
	if displayName != "" {
		c.label = displayName
	}
	vals, ok := t.Column(column)
	if !ok {
		return Result{
			Valid:   false,
			Column:  column,
			Message: fmt.Sprintf("Column '%s' not found in dataset", c.label),
		}
	}
	res := Result{Column: column}
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		x, ok := v.Float()
		if !ok {
			res.Uncoerced++
			continue
		}
		if c.invalid(x) {
			res.InvalidCount++
			if len(res.InvalidValues) < MaxSamples {
				res.InvalidValues = append(res.InvalidValues, v)
			}
		}
	}
	if res.InvalidCount > 0 {
		res.Message = fmt.Sprintf("%d values in '%s' %s", res.InvalidCount, c.label, c.fail)
		return res
	}
	res.Valid = true
	res.Message = fmt.Sprintf("All values in '%s' %s", c.label, c.pass)
	return res
}

// Config binds a rule to a column.
type Config struct {
	Column      string
	DisplayName string
	Rule        Rule
}

// DatasetResult collects every rule outcome for one table.
type DatasetResult struct {
	Dataset string   `json:"dataset"`
	Valid   bool     `json:"is_valid"`
	Results []Result `json:"results"`
}

// Failed returns the failing results.
func (d DatasetResult) Failed() []Result {
	var out []Result
	for _, r := range d.Results {
		if !r.Valid {
			out = append(out, r)
		}
	}
	return out
}

// ValidateDataset runs configs in order. The dataset is valid only when every
// result is. A config without a column, or without a rule, yields a failing
// result instead of being skipped.
func ValidateDataset(t *table.Table, dataset string, configs []Config) DatasetResult {
	out := DatasetResult{Dataset: dataset, Valid: true}
	for _, cfg := range configs {
		var r Result
		switch {
		case cfg.Column == "":
			r = Result{Column: "unknown", Message: "Validation configuration missing 'column' parameter"}
		case cfg.Rule == nil:
			r = Result{Column: cfg.Column, Message: "Validation configuration missing 'type' parameter"}
		default:
			r = Check(t, cfg.Column, cfg.Rule, cfg.DisplayName)
		}
		out.Results = append(out.Results, r)
		if !r.Valid {
			out.Valid = false
		}
	}
	return out
}

// ValidateAll runs each preset against the table of the same key. Tables
// without a preset, and presets without a table, are skipped.
func ValidateAll(tables map[string]*table.Table, presets Presets) map[string]DatasetResult {
	out := make(map[string]DatasetResult)
	for key, p := range presets {
		t, ok := tables[key]
		if !ok || t == nil {
			continue
		}
		out[key] = ValidateDataset(t, p.Label, p.Rules)
	}
	return out
}

// AllValid reports whether every dataset passed.
func AllValid(results map[string]DatasetResult) bool {
	for _, r := range results {
		if !r.Valid {
			return false
		}
	}
	return true
}

// SortedKeys returns the dataset keys of results in order.
func SortedKeys(results map[string]DatasetResult) []string {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
