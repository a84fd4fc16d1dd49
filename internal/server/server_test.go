package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/geo"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

func testBundle(t *testing.T) *dataset.Bundle {
	t.Helper()
	s, i, f := table.StringValue, table.IntValue, table.FloatValue
	disp, err := table.New(dataset.Dispensaries,
		[]string{"County", "Year", "License Number", "Dispensary Name", "License Type", "License Designation"},
		[][]table.Value{
			{s("Los Angeles County"), i(2020), s("L1"), s("A"), s("Retail"), s("Adult-Use")},
			{s("San Diego County"), i(2021), s("L2"), s("B"), s("Retail"), s("Medicinal")},
		})
	if err != nil {
		t.Fatal(err)
	}
	density, _ := table.New(dataset.Density, []string{"County", "Dispensary_PerCapita", "Population"}, [][]table.Value{
		{s("Los Angeles"), f(2), i(10000000)},
		{s("San Diego"), f(3), i(3300000)},
	})
	sent, _ := table.New(dataset.Sentiment, []string{"County", "BERT_Sentiment", "Year", "Month"}, [][]table.Value{
		{s("Los Angeles County"), f(0.5), i(2021), i(1)},
		{s("San Diego County"), f(-0.5), i(2021), i(2)},
		{s("San Diego County"), f(1), i(2021), i(2)},
	})
	bounds, err := geo.Decode(strings.NewReader(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":null,"properties":{"NAME":"Los Angeles"}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	return &dataset.Bundle{Dispensaries: disp, Density: density, Sentiment: sent, Boundaries: bounds}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testBundle(t), Options{Logger: log}).Handler()
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
	}
	return rec, body
}

func TestHealthQualityValidation(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/api/health", "/api/quality", "/api/validation"} {
		rec, _ := get(t, h, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
	_, body := get(t, h, "/api/validation")
	if body["valid"] != true {
		t.Errorf("validation = %v", body)
	}
}

func TestGrowth_FilteredByYear(t *testing.T) {
	h := newTestServer(t)
	rec, body := get(t, h, "/api/growth?year_min=2020&year_max=2020")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if body["rows"].(float64) != 1 || body["empty"] != false || body["filters"] != "Showing data for year 2020" {
		t.Errorf("body = %v", body)
	}
	data := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["growth_rate"] != nil {
		t.Errorf("data = %v", data)
	}
}

func TestEmptySelection(t *testing.T) {
	h := newTestServer(t)
	rec, body := get(t, h, "/api/sentiment/counties?county=Modoc")
	if rec.Code != http.StatusOK || body["empty"] != true {
		t.Errorf("status %d body %v", rec.Code, body)
	}
}

func TestBadQuery(t *testing.T) {
	h := newTestServer(t)
	rec, body := get(t, h, "/api/growth?year_min=2020")
	if rec.Code != http.StatusBadRequest || body["error"] == nil {
		t.Errorf("status %d body %v", rec.Code, body)
	}
	rec, _ = get(t, h, "/api/density/top?n=-1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("top n=-1 status %d", rec.Code)
	}
}

func TestCorrelationAndMonthly(t *testing.T) {
	h := newTestServer(t)
	_, body := get(t, h, "/api/correlation")
	data := body["data"].(map[string]any)
	if len(data["rows"].([]any)) != 2 {
		t.Errorf("correlation = %v", data)
	}
	if _, ok := data["pearson_r"].(float64); !ok {
		t.Errorf("pearson_r = %v", data["pearson_r"])
	}
	_, body = get(t, h, "/api/sentiment/monthly")
	months := body["data"].(map[string]any)["months"].([]any)
	if len(months) != 2 {
		t.Errorf("months = %v", months)
	}
}

func TestRegionsTopAndLicenseTypes(t *testing.T) {
	h := newTestServer(t)
	_, body := get(t, h, "/api/density/regions")
	if len(body["data"].([]any)) != 3 {
		t.Errorf("regions = %v", body["data"])
	}
	_, body = get(t, h, "/api/density/top?n=1")
	top := body["data"].([]any)
	if len(top) != 1 || top[0].(map[string]any)["County"] != "San Diego" {
		t.Errorf("top = %v", top)
	}
	_, body = get(t, h, "/api/licenses/types?license_type=Medicinal")
	if len(body["data"].([]any)) != 1 {
		t.Errorf("license types = %v", body["data"])
	}
}

func TestFiltersSummaryAndCoverage(t *testing.T) {
	h := newTestServer(t)
	_, body := get(t, h, "/api/filters/summary?counties=Los%20Angeles,San%20Diego")
	if body["active"] != true || body["summary"] != "Showing data for 2 counties" || body["rows"].(float64) != 2 {
		t.Errorf("summary = %v", body)
	}
	_, body = get(t, h, "/api/boundaries/coverage")
	ds := body["datasets"].(map[string]any)[dataset.Density].(map[string]any)
	if ds["complete"] != false {
		t.Errorf("coverage = %v", ds)
	}
}

func TestCharts(t *testing.T) {
	h := newTestServer(t)
	rec, _ := get(t, h, "/api/charts/growth")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status %d type %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	rec, _ = get(t, h, "/api/charts/pie")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown chart status %d", rec.Code)
	}
	_, body := get(t, h, "/api/charts/growth?county=Modoc")
	if body["empty"] != true {
		t.Errorf("empty chart = %v", body)
	}
}
