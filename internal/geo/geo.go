// Package geo reads the county boundary FeatureCollection and matches its
// county names against the tabular datasets.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/KaramelBytes/cannalytics/internal/county"
)

// NameProperty is the feature property holding the county name.
const NameProperty = "NAME"

// sampled is how many leading features have their shape checked.
const sampled = 5

// InvalidError reports a boundary file that is not a usable FeatureCollection.
type InvalidError struct {
	Path   string
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Path == "" {
		return "invalid GeoJSON: " + e.Reason
	}
	return fmt.Sprintf("invalid GeoJSON in '%s': %s", e.Path, e.Reason)
}

// Feature keeps the geometry undecoded; only properties are read here.
type Feature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// Name returns the feature's NAME property as a string.
func (f Feature) Name() (string, bool) {
	v, ok := f.Properties[NameProperty]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return s, strings.TrimSpace(s) != ""
}

// Collection is a decoded FeatureCollection.
type Collection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Load opens and decodes a boundary file. A missing file returns an error
// wrapping fs.ErrNotExist.
func Load(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("GeoJSON file not found: '%s': %w", path, err)
		}
		return nil, fmt.Errorf("open GeoJSON: %w", err)
	}
	defer f.Close()
	c, err := Decode(f)
	var inv *InvalidError
	if errors.As(err, &inv) {
		inv.Path = path
	}
	return c, err
}

// Decode reads and validates a FeatureCollection. The first five features
// must be objects of type "Feature" with geometry and properties keys.
func Decode(r io.Reader) (*Collection, error) {
	var top any
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, &InvalidError{Reason: "invalid JSON: " + err.Error()}
	}
	obj, ok := top.(map[string]any)
	if !ok {
		return nil, &InvalidError{Reason: fmt.Sprintf("must be an object, got %s", jsonKind(top))}
	}
	if t, _ := obj["type"].(string); t != "FeatureCollection" {
		return nil, &InvalidError{Reason: fmt.Sprintf("must be a FeatureCollection, got type='%v'", obj["type"])}
	}
	raw, ok := obj["features"]
	if !ok {
		return nil, &InvalidError{Reason: "FeatureCollection must contain 'features' array"}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &InvalidError{Reason: fmt.Sprintf("'features' must be a list, got %s", jsonKind(raw))}
	}
	if len(list) == 0 {
		return nil, &InvalidError{Reason: "FeatureCollection contains no features"}
	}
	for i, item := range list[:min(sampled, len(list))] {
		f, ok := item.(map[string]any)
		if !ok {
			return nil, &InvalidError{Reason: fmt.Sprintf("feature %d is not an object, got %s", i, jsonKind(item))}
		}
		if t, _ := f["type"].(string); t != "Feature" {
			return nil, &InvalidError{Reason: fmt.Sprintf("feature %d missing or invalid 'type' field", i)}
		}
		if _, ok := f["geometry"]; !ok {
			return nil, &InvalidError{Reason: fmt.Sprintf("feature %d missing 'geometry' field", i)}
		}
		if _, ok := f["properties"]; !ok {
			return nil, &InvalidError{Reason: fmt.Sprintf("feature %d missing 'properties' field", i)}
		}
	}

	c := &Collection{Type: "FeatureCollection", Features: make([]Feature, 0, len(list))}
	for _, item := range list {
		f, ok := item.(map[string]any)
		if !ok {
			continue
		}
		feat := Feature{}
		feat.Type, _ = f["type"].(string)
		feat.Properties, _ = f["properties"].(map[string]any)
		if g, ok := f["geometry"]; ok {
			feat.Geometry, _ = json.Marshal(g)
		}
		c.Features = append(c.Features, feat)
	}
	return c, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}

// CountyNames returns the distinct bare county names of the features, sorted.
func (c *Collection) CountyNames() []string {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, f := range c.Features {
		name, ok := f.Name()
		if !ok {
			continue
		}
		n, _ := county.Normalize(name)
		if k := strings.ToLower(n); !seen[k] {
			seen[k] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Coverage compares the counties present in the data with the boundary set.
type Coverage struct {
	Matched []string `json:"matched"`
	// NoBoundary lists data counties with no boundary feature.
	NoBoundary []string `json:"no_boundary"`
	// NoData lists boundary counties absent from the data.
	NoData []string `json:"no_data"`
}

// Complete reports whether every data county has a boundary.
func (c Coverage) Complete() bool { return len(c.NoBoundary) == 0 }

// CoverageOf matches bare county names case-insensitively.
func (c *Collection) CoverageOf(dataCounties []string) Coverage {
	bounds := map[string]string{}
	for _, n := range c.CountyNames() {
		bounds[strings.ToLower(n)] = n
	}
	cov := Coverage{Matched: []string{}, NoBoundary: []string{}, NoData: []string{}}
	seen := map[string]bool{}
	for _, raw := range dataCounties {
		n, ok := county.Normalize(raw)
		if !ok {
			continue
		}
		k := strings.ToLower(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, hit := bounds[k]; hit {
			cov.Matched = append(cov.Matched, n)
		} else {
			cov.NoBoundary = append(cov.NoBoundary, n)
		}
	}
	for k, n := range bounds {
		if !seen[k] {
			cov.NoData = append(cov.NoData, n)
		}
	}
	sort.Strings(cov.Matched)
	sort.Strings(cov.NoBoundary)
	sort.Strings(cov.NoData)
	return cov
}
