package marketdata

import (
	"sort"

	"tickerlab/internal/metrics"
	"tickerlab/internal/series"
)

// IQR rejection parameters applied to every fetched series.
const (
	outlierIQRFactor = 1.5
	outlierMinPoints = 20
)

// filterOutliers drops points whose price falls outside
// [Q1 - k*IQR, Q3 + k*IQR], so a bad tick never reaches the statistics.
// Short series pass through unchanged, and the filter backs off when it
// would reject more than half the points.
func filterOutliers(ps series.PriceSeries) series.PriceSeries {
	if ps.Len() < outlierMinPoints {
		return ps
	}
	sorted := append([]float64(nil), ps.Prices()...)
	sort.Float64s(sorted)
	q1 := metrics.Percentile(sorted, 0.25)
	q3 := metrics.Percentile(sorted, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return ps
	}
	lower := q1 - outlierIQRFactor*iqr
	upper := q3 + outlierIQRFactor*iqr

	ts := ps.Timestamps()
	prices := ps.Prices()
	keptTs := make([]int64, 0, len(ts))
	keptPrices := make([]float64, 0, len(prices))
	for i, v := range prices {
		if v < lower || v > upper {
			continue
		}
		keptTs = append(keptTs, ts[i])
		keptPrices = append(keptPrices, v)
	}
	if len(keptPrices) < outlierMinPoints/2 {
		return ps
	}
	return series.New(keptTs, keptPrices)
}
