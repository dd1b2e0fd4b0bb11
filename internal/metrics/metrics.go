package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Undefined is the sentinel returned by every metric whose value is
// statistically meaningless for the given input (empty series, zero
// variance, non-positive duration). It propagates silently through
// dependent computations instead of raising.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v is the undefined sentinel.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// MaxDrawdown returns the worst fractional decline from a running peak of
// the equity curve. The result is always <= 0, and exactly 0 for a
// non-decreasing curve. Undefined on empty input.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return Undefined()
	}
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := v/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// CAGR returns the compound annual growth rate of an equity curve sampled
// at periodsPerYear observations per year. Undefined when the curve has
// fewer than two points, the duration is non-positive, or the curve does
// not start at a positive value.
func CAGR(equity []float64, periodsPerYear float64) float64 {
	if len(equity) < 2 || periodsPerYear <= 0 {
		return Undefined()
	}
	first := equity[0]
	last := equity[len(equity)-1]
	if first <= 0 || last <= 0 {
		return Undefined()
	}
	years := float64(len(equity)-1) / periodsPerYear
	if years <= 0 {
		return Undefined()
	}
	return math.Pow(last/first, 1/years) - 1
}

// Sharpe returns the annualized Sharpe ratio of a return series: mean
// excess return over its sample standard deviation (ddof=1), both scaled
// to periodsPerYear. riskFree is the annual risk-free rate. Undefined when
// the series is empty or the standard deviation is zero or undefined.
func Sharpe(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) == 0 || periodsPerYear <= 0 {
		return Undefined()
	}
	perPeriodRF := riskFree / periodsPerYear
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - perPeriodRF
	}
	mean := stat.Mean(excess, nil)
	std := stat.StdDev(excess, nil)
	if std == 0 || math.IsNaN(std) {
		return Undefined()
	}
	annMean := mean * periodsPerYear
	annStd := std * math.Sqrt(periodsPerYear)
	return annMean / annStd
}

// HistoricalVaR returns the (1-confidence) percentile of the empirical
// return distribution: the threshold return not undershot with probability
// equal to confidence. The raw signed percentile is returned, so a loss is
// a negative value. Undefined on empty input or a confidence outside (0,1).
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 || confidence <= 0 || confidence >= 1 {
		return Undefined()
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	return Percentile(sorted, 1-confidence)
}

// Percentile returns the p-th quantile (p in [0,1]) of an ascending-sorted
// sample using the linear-interpolated rank statistic pos = p*(n-1).
// Undefined on empty input.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return Undefined()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// AnnualizedVolatility returns the sample standard deviation of a return
// series scaled by sqrt(periodsPerYear). Undefined when the deviation
// itself is undefined.
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return Undefined()
	}
	std := stat.StdDev(returns, nil)
	if math.IsNaN(std) {
		return Undefined()
	}
	return std * math.Sqrt(periodsPerYear)
}
