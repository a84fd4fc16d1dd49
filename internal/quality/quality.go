// Package quality computes completeness and coverage metrics for tables.
package quality

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/cannalytics/internal/memo"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

// Metrics summarizes one table.
type Metrics struct {
	Dataset      string  `json:"dataset"`
	TotalRecords int     `json:"total_records"`
	TotalCells   int     `json:"total_cells"`
	NullCells    int     `json:"null_cells"`
	Completeness float64 `json:"completeness"`
	// UniqueCounties is set when the table has a County column.
	UniqueCounties *int `json:"unique_counties,omitempty"`
	// YearRange is "min-max" when a Year column has at least one numeric value.
	YearRange string          `json:"year_range,omitempty"`
	Columns   []ColumnMetrics `json:"columns"`
}

// ColumnMetrics is the per-column null breakdown.
type ColumnMetrics struct {
	Name         string  `json:"column"`
	NullCount    int     `json:"null_count"`
	NonNull      int     `json:"non_null_count"`
	NullPct      float64 `json:"null_pct"`
	Completeness float64 `json:"completeness_pct"`
}

// Compute derives Metrics from t. It has no side effects.
func Compute(t *table.Table) Metrics {
	m := Metrics{
		Dataset:      t.Name(),
		TotalRecords: t.NumRows(),
		TotalCells:   t.NumRows() * t.NumCols(),
	}
	for _, name := range t.Columns() {
		vals, _ := t.Column(name)
		nulls := 0
		for _, v := range vals {
			if v.IsNull() {
				nulls++
			}
		}
		m.NullCells += nulls
		cm := ColumnMetrics{Name: name, NullCount: nulls, NonNull: len(vals) - nulls}
		if len(vals) > 0 {
			cm.NullPct = round2(float64(nulls) * 100 / float64(len(vals)))
			cm.Completeness = round2(100 - cm.NullPct)
		}
		m.Columns = append(m.Columns, cm)
	}
	sort.SliceStable(m.Columns, func(i, j int) bool { return m.Columns[i].NullCount > m.Columns[j].NullCount })
	if m.TotalCells > 0 {
		m.Completeness = (1 - float64(m.NullCells)/float64(m.TotalCells)) * 100
	}
	if vals, ok := t.Column("County"); ok {
		set := map[string]struct{}{}
		for _, v := range vals {
			if !v.IsNull() {
				set[v.Text()] = struct{}{}
			}
		}
		n := len(set)
		m.UniqueCounties = &n
	}
	if vals, ok := t.Column("Year"); ok {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range vals {
			if y, ok := v.Float(); ok {
				lo = math.Min(lo, y)
				hi = math.Max(hi, y)
			}
		}
		if !math.IsInf(lo, 1) {
			m.YearRange = fmt.Sprintf("%d-%d", int(lo), int(hi))
		}
	}
	return m
}

// ComputeCached memoizes Compute by table fingerprint.
func ComputeCached(c *memo.Cache, t *table.Table) Metrics {
	return memo.Do(c, memo.Key(t.Fingerprint(), "quality"), func() Metrics { return Compute(t) })
}

// ComputeAll computes metrics for every non-empty table, keyed like the input.
func ComputeAll(c *memo.Cache, tables map[string]*table.Table) map[string]Metrics {
	out := make(map[string]Metrics, len(tables))
	for name, t := range tables {
		if t.Empty() {
			continue
		}
		m := ComputeCached(c, t)
		m.Dataset = name
		out[name] = m
	}
	return out
}

// Summary aggregates metrics across datasets.
type Summary struct {
	Datasets            int       `json:"datasets"`
	TotalRecords        int       `json:"total_records"`
	TotalNullCells      int       `json:"total_null_cells"`
	AverageCompleteness float64   `json:"average_completeness"`
	Insights            []Insight `json:"insights"`
}

// Insight is a graded observation about the datasets.
type Insight struct {
	Level   string `json:"level"` // ok|warn|fail
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Overall totals the metrics and grades completeness and county coverage.
func Overall(metrics map[string]Metrics) Summary {
	var s Summary
	if len(metrics) == 0 {
		return s
	}
	var sum float64
	minC, maxC, withC := math.MaxInt, 0, 0
	for _, m := range metrics {
		s.Datasets++
		s.TotalRecords += m.TotalRecords
		s.TotalNullCells += m.NullCells
		sum += m.Completeness
		if m.UniqueCounties != nil {
			withC++
			minC = min(minC, *m.UniqueCounties)
			maxC = max(maxC, *m.UniqueCounties)
		}
	}
	s.AverageCompleteness = sum / float64(s.Datasets)

	avg := s.AverageCompleteness
	switch {
	case avg >= 95:
		s.Insights = append(s.Insights, Insight{"ok", "Excellent Data Quality",
			fmt.Sprintf("Overall data completeness is %.1f%%, indicating high-quality datasets.", avg)})
	case avg >= 85:
		s.Insights = append(s.Insights, Insight{"warn", "Good Data Quality",
			fmt.Sprintf("Overall data completeness is %.1f%%. Some minor data gaps exist but quality is generally good.", avg)})
	default:
		s.Insights = append(s.Insights, Insight{"fail", "Data Quality Issues",
			fmt.Sprintf("Overall data completeness is %.1f%%. Significant data gaps may affect analysis accuracy.", avg)})
	}
	if withC > 0 {
		if minC == maxC {
			s.Insights = append(s.Insights, Insight{"ok", "Consistent County Coverage",
				fmt.Sprintf("All datasets cover %d counties consistently.", minC)})
		} else {
			s.Insights = append(s.Insights, Insight{"warn", "Variable County Coverage",
				fmt.Sprintf("County coverage varies from %d to %d across datasets.", minC, maxC)})
		}
	}
	return s
}

// SortedNames returns the dataset keys in order.
func SortedNames(metrics map[string]Metrics) []string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
