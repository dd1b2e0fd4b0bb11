package portfolio

import (
	"fmt"
	"math"

	"tickerlab/internal/metrics"
)

// Holding is an asset with its target weight. Weights need not sum to 1;
// residual weight is held as cash for the whole period.
type Holding struct {
	Symbol string
	Weight float64
}

// Series is the valuation of a weighted portfolio over time. Returns has
// one fewer element than Values.
type Series struct {
	Timestamps []int64
	Values     []float64
	Returns    []float64
}

// Summary holds the derived portfolio statistics. Metric fields may carry
// the undefined sentinel.
type Summary struct {
	InitialValue float64
	FinalValue   float64
	TotalReturn  float64
	CAGR         float64
	Volatility   float64
	Sharpe       float64
	MaxDrawdown  float64
	Periods      int
}

// Weighted values a buy-at-start weighted portfolio over aligned asset price
// histories. Share counts are fixed on the first observation from the target
// weights and initialValue; unallocated weight sits in cash. assetPrices[i]
// must align with timestamps and with holdings[i].
func Weighted(timestamps []int64, assetPrices [][]float64, holdings []Holding, initialValue float64) (Series, error) {
	if len(timestamps) < 2 {
		return Series{}, fmt.Errorf("need at least 2 observations, got %d", len(timestamps))
	}
	if len(assetPrices) != len(holdings) {
		return Series{}, fmt.Errorf("holdings (%d) don't match price histories (%d)", len(holdings), len(assetPrices))
	}
	if initialValue <= 0 {
		return Series{}, fmt.Errorf("initial value must be positive, got %v", initialValue)
	}
	for i, prices := range assetPrices {
		if len(prices) != len(timestamps) {
			return Series{}, fmt.Errorf("asset %s has %d observations, expected %d", holdings[i].Symbol, len(prices), len(timestamps))
		}
	}

	netWeight := 0.0
	shares := make([]float64, len(holdings))
	for i, h := range holdings {
		first := assetPrices[i][0]
		if first <= 0 || math.IsNaN(first) || math.IsInf(first, 0) {
			return Series{}, fmt.Errorf("asset %s has invalid initial price %v", h.Symbol, first)
		}
		shares[i] = initialValue * h.Weight / first
		netWeight += h.Weight
	}
	cash := initialValue * (1 - netWeight)

	values := make([]float64, len(timestamps))
	rets := make([]float64, len(timestamps)-1)
	values[0] = initialValue
	for day := 1; day < len(timestamps); day++ {
		v := cash
		for i := range holdings {
			price := assetPrices[i][day]
			if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
				return Series{}, fmt.Errorf("asset %s has invalid price %v at observation %d", holdings[i].Symbol, price, day)
			}
			v += shares[i] * price
		}
		values[day] = v
		if values[day-1] > 0 {
			rets[day-1] = v/values[day-1] - 1
		}
	}

	return Series{Timestamps: timestamps, Values: values, Returns: rets}, nil
}

// Stats derives the summary statistics of a portfolio series at the given
// sampling frequency.
func Stats(s Series, periodsPerYear float64) Summary {
	sum := Summary{Periods: len(s.Values)}
	if len(s.Values) == 0 {
		sum.TotalReturn = metrics.Undefined()
		sum.CAGR = metrics.Undefined()
		sum.Volatility = metrics.Undefined()
		sum.Sharpe = metrics.Undefined()
		sum.MaxDrawdown = metrics.Undefined()
		return sum
	}
	sum.InitialValue = s.Values[0]
	sum.FinalValue = s.Values[len(s.Values)-1]
	if sum.InitialValue > 0 {
		sum.TotalReturn = sum.FinalValue/sum.InitialValue - 1
	} else {
		sum.TotalReturn = metrics.Undefined()
	}
	sum.CAGR = metrics.CAGR(s.Values, periodsPerYear)
	sum.Volatility = metrics.AnnualizedVolatility(s.Returns, periodsPerYear)
	sum.Sharpe = metrics.Sharpe(s.Returns, 0, periodsPerYear)
	sum.MaxDrawdown = metrics.MaxDrawdown(s.Values)
	return sum
}
