// Package filter resolves user filter selections and applies them to tables.
package filter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/cannalytics/internal/county"
)

// YearRange is an inclusive [Start, End] range. On the wire it is a
// two-element array.
type YearRange struct {
	Start int
	End   int
}

func (y YearRange) MarshalJSON() ([]byte, error) { return json.Marshal([2]int{y.Start, y.End}) }

func (y *YearRange) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err == nil {
		return y.fromPair(pair)
	}
	var obj struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("years: want [start, end]: %w", err)
	}
	*y = YearRange{Start: obj.Start, End: obj.End}
	return nil
}

func (y YearRange) MarshalYAML() (any, error) { return []int{y.Start, y.End}, nil }

func (y *YearRange) UnmarshalYAML(n *yaml.Node) error {
	var pair []int
	if err := n.Decode(&pair); err != nil {
		return fmt.Errorf("years: want [start, end]: %w", err)
	}
	return y.fromPair(pair)
}

func (y *YearRange) fromPair(pair []int) error {
	if len(pair) != 2 {
		return fmt.Errorf("years: want 2 values, got %d", len(pair))
	}
	*y = YearRange{Start: pair[0], End: pair[1]}
	return nil
}

func (y YearRange) String() string {
	if y.Start == y.End {
		return strconv.Itoa(y.Start)
	}
	return fmt.Sprintf("%d-%d", y.Start, y.End)
}

// ParseYears reads "2020-2023" or a single "2021".
func ParseYears(s string) (YearRange, error) {
	s = strings.TrimSpace(s)
	lo, hi, found := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return YearRange{}, fmt.Errorf("invalid year range %q", s)
	}
	end := start
	if found {
		if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return YearRange{}, fmt.Errorf("invalid year range %q", s)
		}
	}
	if start > end {
		return YearRange{}, fmt.Errorf("invalid year range %q: start after end", s)
	}
	return YearRange{Start: start, End: end}, nil
}

// Spec is a filter selection. Counties is the list form; County is the
// older single-value form kept for saved selections that still use it.
// Counties wins when non-empty.
type Spec struct {
	Years        *YearRange `json:"years,omitempty" yaml:"years,omitempty"`
	LicenseTypes []string   `json:"license_types,omitempty" yaml:"license_types,omitempty"`
	Counties     []string   `json:"counties,omitempty" yaml:"counties,omitempty"`
	County       *string    `json:"county,omitempty" yaml:"county,omitempty"`
}

// ResolveCounties returns the effective county restriction. restricted is
// false when no county field is set or the sentinel is selected. Entries
// that are blank are dropped; if none remain there is no restriction.
func ResolveCounties(s Spec) (names []string, restricted bool) {
	var raw []string
	switch {
	case len(s.Counties) > 0:
		raw = s.Counties
	case s.County != nil:
		raw = []string{*s.County}
	default:
		return nil, false
	}
	for _, c := range raw {
		if c == county.AllCounties {
			return nil, false
		}
		if n, ok := county.Normalize(c); ok {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, false
	}
	return names, true
}

// FromQuery reads a Spec from URL query parameters: years=2019-2022 or
// year_min/year_max, repeated license_type, repeated or comma-separated
// counties, and the single-value county.
func FromQuery(q url.Values) (Spec, error) {
	var s Spec
	if v := q.Get("years"); v != "" {
		yr, err := ParseYears(v)
		if err != nil {
			return s, err
		}
		s.Years = &yr
	} else if lo, hi := q.Get("year_min"), q.Get("year_max"); lo != "" || hi != "" {
		if lo == "" || hi == "" {
			return s, fmt.Errorf("year_min and year_max must be given together")
		}
		yr, err := ParseYears(lo + "-" + hi)
		if err != nil {
			return s, err
		}
		s.Years = &yr
	}
	s.LicenseTypes = splitList(q["license_type"])
	s.Counties = splitList(q["counties"])
	if q.Has("county") {
		c := q.Get("county")
		s.County = &c
	}
	return s, nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// LoadSpec reads a JSON or YAML filter file (by extension; YAML otherwise).
func LoadSpec(path string) (Spec, error) {
	var s Spec
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read filter spec: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = json.Unmarshal(b, &s)
	} else {
		err = yaml.Unmarshal(b, &s)
	}
	if err != nil {
		return s, fmt.Errorf("parse filter spec: %w", err)
	}
	return s, nil
}
