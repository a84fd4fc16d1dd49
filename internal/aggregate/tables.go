package aggregate

import (
	"encoding/json"
	"strconv"

	"github.com/KaramelBytes/cannalytics/internal/county"
	"github.com/KaramelBytes/cannalytics/internal/memo"
	"github.com/KaramelBytes/cannalytics/internal/table"
)

func (c Correlation) MarshalJSON() ([]byte, error) {
	var r *float64
	if c.Defined() {
		p := c.Pearson
		r = &p
	}
	rows := c.Rows
	if rows == nil {
		rows = []CorrelationRow{}
	}
	return json.Marshal(struct {
		Rows    []CorrelationRow `json:"rows"`
		Pearson *float64         `json:"pearson_r"`
	}{rows, r})
}

// Calculator memoizes the aggregations by table fingerprint and parameters.
// A nil Cache disables memoization.
type Calculator struct {
	Cache   *memo.Cache
	Regions []county.Region
}

func (c *Calculator) YearlyGrowth(t *table.Table) []YearGrowth {
	return memo.Do(c.Cache, memo.Key(t.Fingerprint(), "yearly_growth"), func() []YearGrowth { return YearlyGrowth(t) })
}

func (c *Calculator) RegionalDensity(t *table.Table) []RegionDensity {
	regions := c.Regions
	if regions == nil {
		regions = county.CaliforniaRegions
	}
	key := memo.Key(t.Fingerprint(), "regional_density", regionsKey(regions))
	return memo.Do(c.Cache, key, func() []RegionDensity { return RegionalDensity(t, regions) })
}

func (c *Calculator) CountySentiments(t *table.Table) []CountySentiment {
	return memo.Do(c.Cache, memo.Key(t.Fingerprint(), "county_sentiment"), func() []CountySentiment { return CountySentiments(t) })
}

func (c *Calculator) MonthlySentiments(t *table.Table) []MonthlySentiment {
	return memo.Do(c.Cache, memo.Key(t.Fingerprint(), "monthly_sentiment"), func() []MonthlySentiment { return MonthlySentiments(t) })
}

func (c *Calculator) MarketCorrelation(sentiment, density *table.Table) Correlation {
	key := memo.Key(sentiment.Fingerprint(), density.Fingerprint(), "market_correlation")
	return memo.Do(c.Cache, key, func() Correlation {
		return MarketCorrelation(c.CountySentiments(sentiment), density)
	})
}

func (c *Calculator) TopCounties(t *table.Table, n int, metric string) *table.Table {
	key := memo.Key(t.Fingerprint(), "top_counties", strconv.Itoa(n), metric)
	return memo.Do(c.Cache, key, func() *table.Table { return TopCounties(t, n, metric) })
}

func (c *Calculator) LicenseTypeDistribution(t *table.Table) []TypeCount {
	return memo.Do(c.Cache, memo.Key(t.Fingerprint(), "license_types"), func() []TypeCount { return LicenseTypeDistribution(t) })
}

func regionsKey(regions []county.Region) string {
	b, _ := json.Marshal(regions)
	return string(b)
}

// The *Table helpers render aggregates as tables for export.

func ptrValue(p *float64) table.Value {
	if p == nil {
		return table.Null()
	}
	return table.FloatValue(*p)
}

func GrowthTable(rows []YearGrowth) *table.Table {
	data := make([][]table.Value, len(rows))
	for i, r := range rows {
		data[i] = []table.Value{
			table.IntValue(int64(r.Year)), table.IntValue(int64(r.Licenses)),
			table.IntValue(int64(r.Dispensaries)), ptrValue(r.GrowthRate),
		}
	}
	t, _ := table.New("yearly_growth", []string{"Year", "License Number", "Dispensary Name", "Growth_Rate"}, data)
	return t
}

func RegionTable(rows []RegionDensity) *table.Table {
	data := make([][]table.Value, len(rows))
	for i, r := range rows {
		data[i] = []table.Value{table.StringValue(r.Region), table.FloatValue(r.AverageDensity), table.IntValue(int64(r.Rows))}
	}
	t, _ := table.New("regional_density", []string{"Region", "Average_Density", "Rows"}, data)
	return t
}

func CountySentimentTable(rows []CountySentiment) *table.Table {
	data := make([][]table.Value, len(rows))
	for i, r := range rows {
		data[i] = []table.Value{
			table.StringValue(r.County), table.FloatValue(r.AverageSentiment),
			table.IntValue(int64(r.TweetCount)), table.FloatValue(r.PositiveRatio),
		}
	}
	t, _ := table.New("county_sentiment", []string{"County", "Average Sentiment", "Tweet Count", "Positive Ratio"}, data)
	return t
}

func MonthlyTable(rows []MonthlySentiment) *table.Table {
	data := make([][]table.Value, len(rows))
	for i, r := range rows {
		data[i] = []table.Value{
			table.DateValue(r.Date), ptrValue(r.Sentiment),
			table.IntValue(int64(r.Volume)), ptrValue(r.PositiveRatio),
		}
	}
	t, _ := table.New("monthly_sentiment", []string{"Date", "Sentiment", "Volume", "Positive_Ratio"}, data)
	return t
}

func CorrelationTable(c Correlation) *table.Table {
	data := make([][]table.Value, len(c.Rows))
	for i, r := range c.Rows {
		data[i] = []table.Value{
			table.StringValue(r.County), table.FloatValue(r.AverageSentiment),
			table.IntValue(int64(r.TweetCount)), table.FloatValue(r.PositiveRatio),
			ptrValue(r.PerCapita), ptrValue(r.Population),
		}
	}
	t, _ := table.New("market_correlation", []string{
		"County", "Average Sentiment", "Tweet Count", "Positive Ratio", "Dispensary_PerCapita", "Population",
	}, data)
	return t
}

func DistributionTable(rows []TypeCount) *table.Table {
	data := make([][]table.Value, len(rows))
	for i, r := range rows {
		data[i] = []table.Value{table.StringValue(r.LicenseType), table.IntValue(int64(r.Count))}
	}
	t, _ := table.New("license_types", []string{"License Type", "Count"}, data)
	return t
}
