package county_test

import (
	"testing"

	"github.com/KaramelBytes/cannalytics/internal/county"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Alameda County", "Alameda", true},
		{"alameda county ", "alameda", true},
		{"  Los Angeles  ", "Los Angeles", true},
		{"San Diego COUNTY", "San Diego", true},
		{"County", "County", true},
		{"Orange County County", "Orange County", true},
		{"", "", false},
		{"   ", "", false},
	}
	for _, c := range cases {
		got, ok := county.Normalize(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("Normalize(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"Alameda County", "Kern", " fresno county", "San Luis Obispo"} {
		once, _ := county.Normalize(in)
		twice, _ := county.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestSuffix(t *testing.T) {
	cases := map[string]string{
		"Alameda":        "Alameda County",
		"Alameda County": "Alameda County",
		"kern county":    "kern county",
		"  Inyo ":        "Inyo County",
	}
	for in, want := range cases {
		got, ok := county.Suffix(in)
		if !ok || got != want {
			t.Errorf("Suffix(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := county.Suffix(""); ok {
		t.Errorf("Suffix of empty must be absent")
	}
	// suffix then normalize returns the bare name
	s, _ := county.Suffix("Tulare")
	if n, _ := county.Normalize(s); n != "Tulare" {
		t.Errorf("round trip = %q", n)
	}
}

func TestNormalizeValue_NonString(t *testing.T) {
	if got, ok := county.NormalizeValue(table.IntValue(42)); !ok || got != "42" {
		t.Errorf("int value = %q,%v", got, ok)
	}
	if _, ok := county.NormalizeValue(table.Null()); ok {
		t.Errorf("null must be absent")
	}
}

func TestNormalizeColumnAndValidate(t *testing.T) {
	tb, err := table.New("d", []string{"County"}, [][]table.Value{
		{table.StringValue("Alameda County")},
		{table.StringValue("Atlantis County")},
		{table.Null()},
	})
	if err != nil {
		t.Fatal(err)
	}
	norm, err := county.NormalizeColumn(tb, "County")
	if err != nil {
		t.Fatal(err)
	}
	if norm.Value(0, "County").Text() != "Alameda" || tb.Value(0, "County").Text() != "Alameda County" {
		t.Fatalf("normalize column changed source or failed")
	}
	if _, err := county.NormalizeColumn(tb, "Nope"); err == nil {
		t.Errorf("expected missing column error")
	}

	chk, err := county.ValidateNames(tb, "County", []string{"Alameda County", "Kern"})
	if err != nil {
		t.Fatal(err)
	}
	if chk.Valid || len(chk.Unknown) != 1 || chk.Unknown[0] != "Atlantis County" || chk.Nulls != 1 {
		t.Errorf("ValidateNames = %+v", chk)
	}
	chk, _ = county.ValidateNames(tb, "County", nil)
	if chk.Valid || chk.Nulls != 1 {
		t.Errorf("ValidateNames without list = %+v", chk)
	}
	if u := county.Unique(tb, "County"); len(u) != 2 || u[0] != "Alameda" {
		t.Errorf("Unique = %v", u)
	}
}

func TestRegionFor(t *testing.T) {
	cases := []struct {
		name    string
		regions []county.Region
		want    string
	}{
		{"Humboldt County", county.CaliforniaRegions, "Northern California"},
		{"Fresno", county.CaliforniaRegions, "Central California"},
		{"Los Angeles County", county.CaliforniaRegions, "Southern California"},
		{"Alameda", county.CaliforniaRegions, county.UnknownRegion},
		{"Alameda", county.SimpleRegions, "Bay Area"},
		{"Kern County", county.SimpleRegions, "Central"},
		{"", county.SimpleRegions, county.UnknownRegion},
	}
	for _, c := range cases {
		if got := county.RegionFor(c.name, c.regions); got != c.want {
			t.Errorf("RegionFor(%q) = %q want %q", c.name, got, c.want)
		}
	}
}
