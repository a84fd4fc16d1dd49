// Package aggregate derives summary tables from already-filtered datasets.
// Every function is pure and tolerates empty or single-row input.
package aggregate

import (
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/cannalytics/internal/county"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

// Column names read by the aggregations.
const (
	ColYear          = "Year"
	ColMonth         = "Month"
	ColCounty        = "County"
	ColLicenseNumber = "License Number"
	ColDispensary    = "Dispensary Name"
	ColDesignation   = "License Designation"
	ColLicenseType   = "License Type"
	ColPerCapita     = "Dispensary_PerCapita"
	ColPopulation    = "Population"
	ColSentiment     = "BERT_Sentiment"
	ColTweetDate     = "Tweet_Date"
)

// ---------- yearly growth ----------

// YearGrowth is one year of license activity.
type YearGrowth struct {
	Year         int `json:"year"`
	Licenses     int `json:"licenses"`
	Dispensaries int `json:"dispensaries"`
	// GrowthRate is the percent change in Dispensaries from the previous
	// year; nil for the first year or when the previous count is zero.
	GrowthRate *float64 `json:"growth_rate"`
}

// YearlyGrowth counts distinct license numbers and dispensary names per year.
// Rows without an integral year are ignored.
func YearlyGrowth(t *table.Table) []YearGrowth {
	type acc struct{ lic, disp map[string]struct{} }
	groups := map[int]*acc{}
	for r := 0; r < t.NumRows(); r++ {
		y, ok := t.Value(r, ColYear).Int()
		if !ok {
			continue
		}
		g := groups[int(y)]
		if g == nil {
			g = &acc{lic: map[string]struct{}{}, disp: map[string]struct{}{}}
			groups[int(y)] = g
		}
		if v := t.Value(r, ColLicenseNumber); !v.IsNull() {
			g.lic[v.Text()] = struct{}{}
		}
		if v := t.Value(r, ColDispensary); !v.IsNull() {
			g.disp[v.Text()] = struct{}{}
		}
	}
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]YearGrowth, len(years))
	for i, y := range years {
		out[i] = YearGrowth{Year: y, Licenses: len(groups[y].lic), Dispensaries: len(groups[y].disp)}
		if i > 0 {
			out[i].GrowthRate = pctChange(float64(out[i-1].Dispensaries), float64(out[i].Dispensaries))
		}
	}
	return out
}

func pctChange(prev, cur float64) *float64 {
	if prev == 0 {
		return nil
	}
	g := (cur - prev) / prev * 100
	return &g
}

// ---------- regional density ----------

// RegionDensity is the mean per-capita density over a region's counties.
type RegionDensity struct {
	Region         string  `json:"region"`
	AverageDensity float64 `json:"average_density"`
	Rows           int     `json:"rows"`
}

// RegionalDensity averages Dispensary_PerCapita over the rows of each
// region's counties, in region order. A region without rows averages 0.
func RegionalDensity(t *table.Table, regions []county.Region) []RegionDensity {
	byCounty := map[string][]float64{}
	for r := 0; r < t.NumRows(); r++ {
		n, ok := county.NormalizeValue(t.Value(r, ColCounty))
		if !ok {
			continue
		}
		x, ok := t.Value(r, ColPerCapita).Float()
		if !ok {
			continue
		}
		k := strings.ToLower(n)
		byCounty[k] = append(byCounty[k], x)
	}
	out := make([]RegionDensity, 0, len(regions))
	for _, reg := range regions {
		var xs []float64
		for _, c := range reg.Counties {
			xs = append(xs, byCounty[strings.ToLower(county.Key(c))]...)
		}
		rd := RegionDensity{Region: reg.Name, Rows: len(xs)}
		if len(xs) > 0 {
			rd.AverageDensity = stat.Mean(xs, nil)
		}
		out = append(out, rd)
	}
	return out
}

// ---------- county sentiment ----------

// CountySentiment summarizes scores for one county.
type CountySentiment struct {
	County           string  `json:"county"`
	AverageSentiment float64 `json:"average_sentiment"`
	TweetCount       int     `json:"tweet_count"`
	PositiveRatio    float64 `json:"positive_ratio"`
}

// CountySentiments groups BERT_Sentiment by bare county name and reports the
// mean, the count and the percentage of strictly positive scores, rounded to
// two decimals and sorted by county. Non-numeric scores are ignored.
func CountySentiments(t *table.Table) []CountySentiment {
	type acc struct {
		name   string
		scores []float64
	}
	groups := map[string]*acc{}
	for r := 0; r < t.NumRows(); r++ {
		n, ok := county.NormalizeValue(t.Value(r, ColCounty))
		if !ok {
			continue
		}
		x, ok := t.Value(r, ColSentiment).Float()
		if !ok {
			continue
		}
		k := strings.ToLower(n)
		g := groups[k]
		if g == nil {
			g = &acc{name: n}
			groups[k] = g
		}
		g.scores = append(g.scores, x)
	}
	out := make([]CountySentiment, 0, len(groups))
	for _, g := range groups {
		pos := 0
		for _, x := range g.scores {
			if x > 0 {
				pos++
			}
		}
		out = append(out, CountySentiment{
			County:           g.name,
			AverageSentiment: round2(stat.Mean(g.scores, nil)),
			TweetCount:       len(g.scores),
			PositiveRatio:    round2(float64(pos) * 100 / float64(len(g.scores))),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].County < out[j].County })
	return out
}

// ---------- market correlation ----------

// CorrelationRow joins one county's sentiment with one density record.
type CorrelationRow struct {
	CountySentiment
	PerCapita  *float64 `json:"dispensary_per_capita"`
	Population *float64 `json:"population"`
}

// Correlation is the joined table plus the Pearson coefficient between
// per-capita density and average sentiment. Pearson is NaN with fewer than
// two complete rows or zero variance.
type Correlation struct {
	Rows    []CorrelationRow `json:"rows"`
	Pearson float64          `json:"-"`
}

// Defined reports whether Pearson is a number.
func (c Correlation) Defined() bool { return !math.IsNaN(c.Pearson) }

// MarketCorrelation inner-joins county sentiment with density rows on the
// bare, case-folded county name. Density rows keep their order.
func MarketCorrelation(sentiment []CountySentiment, density *table.Table) Correlation {
	bySent := make(map[string]CountySentiment, len(sentiment))
	for _, s := range sentiment {
		if n, ok := county.Normalize(s.County); ok {
			bySent[strings.ToLower(n)] = s
		}
	}
	var c Correlation
	var xs, ys []float64
	for r := 0; r < density.NumRows(); r++ {
		n, ok := county.NormalizeValue(density.Value(r, ColCounty))
		if !ok {
			continue
		}
		s, hit := bySent[strings.ToLower(n)]
		if !hit {
			continue
		}
		row := CorrelationRow{CountySentiment: s}
		if x, ok := density.Value(r, ColPerCapita).Float(); ok {
			row.PerCapita = &x
			xs = append(xs, x)
			ys = append(ys, s.AverageSentiment)
		}
		if p, ok := density.Value(r, ColPopulation).Float(); ok {
			row.Population = &p
		}
		c.Rows = append(c.Rows, row)
	}
	c.Pearson = math.NaN()
	if len(xs) >= 2 {
		c.Pearson = stat.Correlation(xs, ys, nil)
	}
	return c
}

// ---------- monthly sentiment ----------

// MonthlySentiment summarizes one calendar month, dated at its last day.
// Months inside the covered span with no rows have Volume 0 and nil
// Sentiment and PositiveRatio.
type MonthlySentiment struct {
	Date          time.Time `json:"date"`
	Sentiment     *float64  `json:"sentiment"`
	Volume        int       `json:"volume"`
	PositiveRatio *float64  `json:"positive_ratio"`
}

// MonthlySentiments groups rows by calendar month of Tweet_Date, or of
// Year and Month when there is no Tweet_Date column. Volume counts rows;
// Sentiment averages the numeric scores; PositiveRatio is the percentage of
// rows with a strictly positive score.
func MonthlySentiments(t *table.Table) []MonthlySentiment {
	type acc struct {
		rows, pos int
		scores    []float64
	}
	groups := map[int]*acc{}
	useDate := t.Has(ColTweetDate)
	for r := 0; r < t.NumRows(); r++ {
		key, ok := 0, false
		if useDate {
			if ts, tok := t.Value(r, ColTweetDate).Time(); tok {
				key, ok = ts.Year()*12+int(ts.Month())-1, true
			}
		} else {
			y, yok := t.Value(r, ColYear).Int()
			m, mok := t.Value(r, ColMonth).Int()
			if yok && mok && m >= 1 && m <= 12 {
				key, ok = int(y)*12+int(m)-1, true
			}
		}
		if !ok {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &acc{}
			groups[key] = g
		}
		g.rows++
		if x, ok := t.Value(r, ColSentiment).Float(); ok {
			g.scores = append(g.scores, x)
			if x > 0 {
				g.pos++
			}
		}
	}
	if len(groups) == 0 {
		return nil
	}
	first, last := math.MaxInt, math.MinInt
	for k := range groups {
		first = min(first, k)
		last = max(last, k)
	}
	out := make([]MonthlySentiment, 0, last-first+1)
	for k := first; k <= last; k++ {
		m := MonthlySentiment{Date: monthEnd(k/12, time.Month(k%12+1))}
		if g := groups[k]; g != nil {
			m.Volume = g.rows
			if len(g.scores) > 0 {
				mean := stat.Mean(g.scores, nil)
				m.Sentiment = &mean
			}
			ratio := float64(g.pos) * 100 / float64(g.rows)
			m.PositiveRatio = &ratio
		}
		out = append(out, m)
	}
	return out
}

func monthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// VolumeGrowth returns the month-over-month percent change in Volume. The
// first month, and any month after a zero-volume month, is nil.
func VolumeGrowth(months []MonthlySentiment) []*float64 {
	out := make([]*float64, len(months))
	for i := 1; i < len(months); i++ {
		out[i] = pctChange(float64(months[i-1].Volume), float64(months[i].Volume))
	}
	return out
}

// ---------- top counties & license mix ----------

// TopCounties returns the n rows with the largest numeric metric, in
// descending order. Rows whose metric is not numeric are dropped.
func TopCounties(t *table.Table, n int, metric string) *table.Table {
	if metric == "" {
		metric = ColPerCapita
	}
	type kv struct {
		row int
		x   float64
	}
	var rows []kv
	for r := 0; r < t.NumRows(); r++ {
		if x, ok := t.Value(r, metric).Float(); ok {
			rows = append(rows, kv{r, x})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].x > rows[j].x })
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	idx := make([]int, len(rows))
	for i, kv := range rows {
		idx[i] = kv.row
	}
	return t.Select(idx)
}

// TypeCount is one license type and its row count.
type TypeCount struct {
	LicenseType string `json:"license_type"`
	Count       int    `json:"count"`
}

// LicenseTypeDistribution counts rows per License Designation, or per
// License Type when there is no designation column, most frequent first.
func LicenseTypeDistribution(t *table.Table) []TypeCount {
	col := ColDesignation
	if !t.Has(col) {
		col = ColLicenseType
	}
	vals, ok := t.Column(col)
	if !ok {
		return nil
	}
	counts := map[string]int{}
	for _, v := range vals {
		if !v.IsNull() {
			counts[v.Text()]++
		}
	}
	out := make([]TypeCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, TypeCount{LicenseType: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].LicenseType < out[j].LicenseType
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
