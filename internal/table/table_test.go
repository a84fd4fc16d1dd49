package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV_InfersColumnTypes(t *testing.T) {
	in := "County,Year,Dispensary_PerCapita,License_Date,Note\n" +
		"Alameda County,2020,1.5,2020-03-01,ok\n" +
		"Fresno,2021,\"2,25\",2021-07-15,\n" +
		",2022,,2022-01-31,7\n"
	tb, err := ReadCSV(strings.NewReader(in), "density", Options{})
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if tb.NumRows() != 3 || tb.NumCols() != 5 {
		t.Fatalf("shape = %dx%d, want 3x5", tb.NumRows(), tb.NumCols())
	}
	if k := tb.Value(0, "Year").Kind(); k != KindInt {
		t.Errorf("Year kind = %s, want int", k)
	}
	if k := tb.Value(0, "Dispensary_PerCapita").Kind(); k != KindFloat {
		t.Errorf("per-capita kind = %s, want float", k)
	}
	if f, _ := tb.Value(1, "Dispensary_PerCapita").Float(); f != 2.25 {
		t.Errorf("locale number = %v, want 2.25", f)
	}
	if !tb.Value(2, "Dispensary_PerCapita").IsNull() || !tb.Value(2, "County").IsNull() {
		t.Errorf("empty cells must be null")
	}
	if k := tb.Value(0, "License_Date").Kind(); k != KindDate {
		t.Errorf("date kind = %s, want date", k)
	}
	// Mixed column stays textual so numeric coercion happens downstream.
	if v := tb.Value(2, "Note"); v.Kind() != KindString || v.Text() != "7" {
		t.Errorf("mixed column value = %v (%s)", v, v.Kind())
	}
}

func TestReadCSV_EmptyInput(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(""), "x", Options{})
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if !tb.Empty() || tb.NumCols() != 0 {
		t.Fatalf("expected empty table")
	}
}

func TestNew_RejectsRaggedAndDuplicate(t *testing.T) {
	if _, err := New("x", []string{"a", "b"}, [][]Value{{IntValue(1)}}); err == nil {
		t.Errorf("expected error for ragged row")
	}
	if _, err := New("x", []string{"a", "a"}, nil); err == nil {
		t.Errorf("expected error for duplicate column")
	}
	if _, err := FromColumns("x", []string{"a", "b"}, [][]Value{{IntValue(1)}, {}}); err == nil {
		t.Errorf("expected error for unequal columns")
	}
}

func TestDerivationsDoNotMutateSource(t *testing.T) {
	src, err := New("t", []string{"n"}, [][]Value{{IntValue(1)}, {IntValue(2)}, {IntValue(3)}})
	if err != nil {
		t.Fatal(err)
	}
	before := src.Fingerprint()
	odd := src.Where(func(r int) bool {
		n, _ := src.Value(r, "n").Int()
		return n%2 == 1
	})
	if odd.NumRows() != 2 {
		t.Fatalf("Where rows = %d, want 2", odd.NumRows())
	}
	repl, err := src.WithColumn("n", []Value{Null(), Null(), Null()})
	if err != nil {
		t.Fatal(err)
	}
	if !repl.Value(0, "n").IsNull() {
		t.Errorf("WithColumn did not replace")
	}
	col, _ := src.Column("n")
	col[0] = StringValue("mutated")
	if src.Fingerprint() != before {
		t.Fatalf("source table changed")
	}
	added, err := src.WithColumn("m", []Value{Null(), Null(), Null()})
	if err != nil {
		t.Fatal(err)
	}
	if added.NumCols() != 2 || src.NumCols() != 1 {
		t.Errorf("cols: added=%d src=%d", added.NumCols(), src.NumCols())
	}
}

func TestFingerprintDistinguishesKinds(t *testing.T) {
	a, _ := New("t", []string{"v"}, [][]Value{{IntValue(1)}})
	b, _ := New("t", []string{"v"}, [][]Value{{StringValue("1")}})
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatalf("int and string cells must hash differently")
	}
}

func TestValueCoercion(t *testing.T) {
	cases := []struct {
		v   Value
		f   float64
		fOK bool
		i   int64
		iOK bool
	}{
		{IntValue(2020), 2020, true, 2020, true},
		{FloatValue(2.5), 2.5, true, 0, false},
		{FloatValue(2021), 2021, true, 2021, true},
		{StringValue(" 3 "), 3, true, 3, true},
		{StringValue("abc"), 0, false, 0, false},
		{StringValue("NaN"), 0, false, 0, false},
		{Null(), 0, false, 0, false},
	}
	for _, c := range cases {
		f, ok := c.v.Float()
		if ok != c.fOK || (ok && f != c.f) {
			t.Errorf("%v.Float() = %v,%v want %v,%v", c.v, f, ok, c.f, c.fOK)
		}
		i, ok := c.v.Int()
		if ok != c.iOK || (ok && i != c.i) {
			t.Errorf("%v.Int() = %v,%v want %v,%v", c.v, i, ok, c.i, c.iOK)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	tb, _ := New("t", []string{"County", "Score"}, [][]Value{
		{StringValue("Kern"), FloatValue(0.5)},
		{Null(), IntValue(3)},
	})
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tb); err != nil {
		t.Fatal(err)
	}
	want := "County,Score\nKern,0.5\n,3\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}

func TestLoad_XLSXAndCSV(t *testing.T) {
	dir := t.TempDir()
	xp := filepath.Join(dir, "Dispensaries.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "County")
	f.SetCellValue("Sheet1", "B1", "Year")
	f.SetCellValue("Sheet1", "A2", "Kern County")
	f.SetCellValue("Sheet1", "B2", 2019)
	if err := f.SaveAs(xp); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	tb, err := Load(xp, DefaultOptions())
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}
	if tb.Name() != "Dispensaries" || tb.NumRows() != 1 {
		t.Fatalf("xlsx table = %s/%d", tb.Name(), tb.NumRows())
	}
	if y, ok := tb.Value(0, "Year").Int(); !ok || y != 2019 {
		t.Errorf("Year = %v,%v", y, ok)
	}
	if _, err := Load(xp, Options{Sheet: "Missing"}); err == nil || !strings.Contains(err.Error(), "Available sheets") {
		t.Errorf("expected missing sheet error, got %v", err)
	}

	tp := filepath.Join(dir, "x.tsv")
	if err := os.WriteFile(tp, []byte("a\tb\n1\t2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tb, err = Load(tp, Options{})
	if err != nil {
		t.Fatalf("Load tsv: %v", err)
	}
	if tb.NumCols() != 2 {
		t.Errorf("tsv cols = %d", tb.NumCols())
	}
	if _, err := Load(filepath.Join(dir, "x.parquet"), Options{}); err == nil {
		t.Errorf("expected unsupported error")
	}
}
