package county

// Region is a named group of bare county names.
type Region struct {
	Name     string   `json:"name" yaml:"name"`
	Counties []string `json:"counties" yaml:"counties"`
}

// UnknownRegion is returned for counties outside every region.
const UnknownRegion = "Unknown"

// CaliforniaRegions is the detailed three-region breakdown.
var CaliforniaRegions = []Region{
	{Name: "Northern California", Counties: []string{
		"Del Norte", "Siskiyou", "Modoc", "Humboldt", "Trinity", "Shasta", "Lassen",
		"Tehama", "Plumas", "Mendocino", "Glenn", "Butte", "Sierra", "Lake", "Colusa",
		"Yuba", "Nevada", "Placer", "Sutter", "Yolo", "El Dorado", "Sacramento",
		"Amador", "Solano", "Napa", "Sonoma", "Marin",
	}},
	{Name: "Central California", Counties: []string{
		"San Joaquin", "Calaveras", "Alpine", "Tuolumne", "Stanislaus", "Mono", "Merced",
		"Mariposa", "Madera", "Fresno", "Kings", "Tulare", "Inyo", "San Benito", "Monterey",
	}},
	{Name: "Southern California", Counties: []string{
		"San Luis Obispo", "Santa Barbara", "Ventura", "Los Angeles", "San Bernardino",
		"Orange", "Riverside", "San Diego", "Imperial",
	}},
}

// SimpleRegions is the coarse four-region breakdown.
var SimpleRegions = []Region{
	{Name: "Northern", Counties: []string{
		"Humboldt", "Mendocino", "Trinity", "Del Norte", "Siskiyou", "Shasta", "Tehama",
	}},
	{Name: "Bay Area", Counties: []string{
		"San Francisco", "Alameda", "Contra Costa", "San Mateo", "Santa Clara",
		"Marin", "Sonoma", "Napa", "Solano",
	}},
	{Name: "Central", Counties: []string{
		"Sacramento", "San Joaquin", "Stanislaus", "Merced", "Fresno", "Kings", "Tulare", "Kern",
	}},
	{Name: "Southern", Counties: []string{
		"Los Angeles", "Orange", "San Diego", "Riverside", "San Bernardino", "Ventura", "Santa Barbara",
	}},
}

// RegionFor returns the first region containing the county, or UnknownRegion.
func RegionFor(name string, regions []Region) string {
	n, ok := Normalize(name)
	if !ok {
		return UnknownRegion
	}
	for _, r := range regions {
		if r.Contains(n) {
			return r.Name
		}
	}
	return UnknownRegion
}

// Contains reports whether the region lists the county (bare or suffixed).
func (r Region) Contains(name string) bool {
	n := Key(name)
	for _, c := range r.Counties {
		if Key(c) == n {
			return true
		}
	}
	return false
}

// LookupRegions returns the region set by name: "simple" or "california".
func LookupRegions(name string) ([]Region, bool) {
	switch name {
	case "", "california", "detailed":
		return CaliforniaRegions, true
	case "simple":
		return SimpleRegions, true
	}
	return nil, false
}
