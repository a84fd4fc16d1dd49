// Package county canonicalizes California county names so datasets that
// spell them differently ("Alameda County", "alameda county ", "Alameda")
// can be joined and filtered.
package county

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/table"
)

// AllCounties is the filter sentinel meaning "no county restriction".
const AllCounties = "All Counties"

const suffix = " county"

// Normalize returns the bare county name: trimmed, with one trailing
// case-insensitive " County" token removed. Empty input is absent.
func Normalize(name string) (string, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", false
	}
	if strings.HasSuffix(strings.ToLower(s), suffix) {
		s = strings.TrimSpace(s[:len(s)-len(suffix)])
	}
	return s, true
}

// Suffix returns the trimmed name ending in " County". An existing suffix is
// kept with its original casing. Empty input is absent.
func Suffix(name string) (string, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", false
	}
	if strings.HasSuffix(strings.ToLower(s), suffix) {
		return s, true
	}
	return s + " County", true
}

// NormalizeValue normalizes a cell through its string form. Null is absent.
func NormalizeValue(v table.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	return Normalize(v.Text())
}

// SuffixValue is Suffix over a cell's string form.
func SuffixValue(v table.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	return Suffix(v.Text())
}

// Key is the bare name used for comparisons; absent names map to "".
func Key(name string) string {
	s, _ := Normalize(name)
	return s
}

// NormalizeColumn returns a copy of t whose column holds bare names.
// Absent names become null.
func NormalizeColumn(t *table.Table, column string) (*table.Table, error) {
	vals, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("column %q not found in dataset", column)
	}
	for i, v := range vals {
		if s, ok := NormalizeValue(v); ok {
			vals[i] = table.StringValue(s)
		} else {
			vals[i] = table.Null()
		}
	}
	return t.WithColumn(column, vals)
}

// NameCheck reports how a county column compares to a reference list.
type NameCheck struct {
	Valid   bool     `json:"valid"`
	Unknown []string `json:"unknown,omitempty"`
	Nulls   int      `json:"nulls"`
}

// ValidateNames checks every non-null county against known (bare or
// suffixed names both accepted). With no known list only nulls are reported
// and the column is valid when it has none.
func ValidateNames(t *table.Table, column string, known []string) (NameCheck, error) {
	vals, ok := t.Column(column)
	if !ok {
		return NameCheck{}, fmt.Errorf("column %q not found in dataset", column)
	}
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		if n, ok := Normalize(k); ok {
			set[n] = struct{}{}
		}
	}
	var res NameCheck
	seen := map[string]bool{}
	for _, v := range vals {
		n, ok := NormalizeValue(v)
		if !ok {
			res.Nulls++
			continue
		}
		if len(set) == 0 {
			continue
		}
		if _, hit := set[n]; !hit && !seen[v.Text()] {
			seen[v.Text()] = true
			res.Unknown = append(res.Unknown, v.Text())
		}
	}
	sort.Strings(res.Unknown)
	if len(set) == 0 {
		res.Valid = res.Nulls == 0
	} else {
		res.Valid = len(res.Unknown) == 0
	}
	return res, nil
}

// Unique returns the distinct bare names in a column, sorted.
func Unique(t *table.Table, column string) []string {
	vals, ok := t.Column(column)
	if !ok {
		return nil
	}
	set := map[string]struct{}{}
	for _, v := range vals {
		if n, ok := NormalizeValue(v); ok {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
