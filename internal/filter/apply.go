package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/county"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

// Column names the filter steps look for.
const (
	YearColumn        = "Year"
	DesignationColumn = "License Designation"
	LicenseTypeColumn = "License Type"
	CountyColumn      = "County"
)

// Defaults is the unrestricted selection, used to decide which filters are active.
type Defaults struct {
	Years        YearRange
	LicenseTypes []string
}

// StandardDefaults covers 2018-2024 and the three license designations.
func StandardDefaults() Defaults {
	return Defaults{
		Years:        YearRange{Start: 2018, End: 2024},
		LicenseTypes: []string{"Adult-Use", "Medicinal", "Adult-Use and Medicinal"},
	}
}

// Apply returns the rows of t that pass every set filter, in the order year,
// license designation, county. Counties compare as bare names, ignoring case.
// A step whose column is missing is skipped.
// t is not modified and an empty result is valid.
func Apply(t *table.Table, s Spec) *table.Table {
	out := t
	if s.Years != nil && out.Has(YearColumn) {
		lo, hi := float64(s.Years.Start), float64(s.Years.End)
		cur := out
		out = cur.Where(func(r int) bool {
			y, ok := cur.Value(r, YearColumn).Float()
			return ok && y >= lo && y <= hi
		})
	}
	if len(s.LicenseTypes) > 0 && out.Has(DesignationColumn) {
		want := make(map[string]struct{}, len(s.LicenseTypes))
		for _, lt := range s.LicenseTypes {
			want[lt] = struct{}{}
		}
		cur := out
		out = cur.Where(func(r int) bool {
			v := cur.Value(r, DesignationColumn)
			if v.IsNull() {
				return false
			}
			_, ok := want[v.Text()]
			return ok
		})
	}
	if names, restricted := ResolveCounties(s); restricted && out.Has(CountyColumn) {
		want := make(map[string]struct{}, len(names))
		for _, n := range names {
			want[strings.ToLower(n)] = struct{}{}
		}
		cur := out
		out = cur.Where(func(r int) bool {
			n, ok := county.NormalizeValue(cur.Value(r, CountyColumn))
			if !ok {
				return false
			}
			_, hit := want[strings.ToLower(n)]
			return hit
		})
	}
	return out
}

// Summary describes the selection in one sentence, e.g.
// "Showing data for 2020-2023, Los Angeles, all license types".
func Summary(s Spec, d Defaults) string {
	var parts []string
	if s.Years != nil {
		if s.Years.Start == s.Years.End {
			parts = append(parts, fmt.Sprintf("year %d", s.Years.Start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", s.Years.Start, s.Years.End))
		}
	}
	if part, ok := countyPart(s); ok {
		parts = append(parts, part)
	}
	if n := len(s.LicenseTypes); n > 0 {
		switch {
		case n == len(d.LicenseTypes):
			parts = append(parts, "all license types")
		case n == 1:
			parts = append(parts, s.LicenseTypes[0])
		default:
			parts = append(parts, fmt.Sprintf("%d license types", n))
		}
	}
	if len(parts) == 0 {
		return "No filters applied"
	}
	return "Showing data for " + strings.Join(parts, ", ")
}

func countyPart(s Spec) (string, bool) {
	var raw []string
	switch {
	case len(s.Counties) > 0:
		raw = s.Counties
	case s.County != nil:
		raw = []string{*s.County}
	default:
		return "", false
	}
	for _, c := range raw {
		if c == county.AllCounties {
			return "all counties", true
		}
	}
	names, ok := ResolveCounties(s)
	switch {
	case !ok:
		return "", false
	case len(names) == 1:
		return names[0], true
	}
	return fmt.Sprintf("%d counties", len(names)), true
}

// HasActive reports whether the selection restricts anything relative to d.
func HasActive(s Spec, d Defaults) bool {
	if s.Years != nil && *s.Years != d.Years {
		return true
	}
	if _, restricted := ResolveCounties(s); restricted {
		return true
	}
	if n := len(s.LicenseTypes); n > 0 && n < len(d.LicenseTypes) {
		return true
	}
	return false
}

// Options lists the selectable values present in a table.
type Options struct {
	Years        []int    `json:"years"`
	LicenseTypes []string `json:"license_types"`
	Counties     []string `json:"counties"`
}

// OptionsFor collects sorted distinct years, license designations (falling
// back to License Type) and bare county names from t.
func OptionsFor(t *table.Table) Options {
	var o Options
	if vals, ok := t.Column(YearColumn); ok {
		seen := map[int]bool{}
		for _, v := range vals {
			if y, ok := v.Int(); ok && !seen[int(y)] {
				seen[int(y)] = true
				o.Years = append(o.Years, int(y))
			}
		}
		sort.Ints(o.Years)
	}
	col := DesignationColumn
	if !t.Has(col) {
		col = LicenseTypeColumn
	}
	if vals, ok := t.Column(col); ok {
		seen := map[string]bool{}
		for _, v := range vals {
			if !v.IsNull() && !seen[v.Text()] {
				seen[v.Text()] = true
				o.LicenseTypes = append(o.LicenseTypes, v.Text())
			}
		}
		sort.Strings(o.LicenseTypes)
	}
	o.Counties = county.Unique(t, CountyColumn)
	return o
}

// DefaultsFrom widens d to the years and license types present in the data.
func DefaultsFrom(o Options, d Defaults) Defaults {
	if len(o.Years) > 0 {
		d.Years = YearRange{Start: o.Years[0], End: o.Years[len(o.Years)-1]}
	}
	if len(o.LicenseTypes) > 0 {
		d.LicenseTypes = o.LicenseTypes
	}
	return d
}
