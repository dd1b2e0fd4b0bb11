package series

import "math"

// Point is a single (timestamp, price) observation.
type Point struct {
	Timestamp int64
	Price     float64
}

// PriceSeries is an ordered sequence of price observations with strictly
// increasing timestamps and positive prices. It is immutable after
// construction; derived series are recomputed fresh on each call.
type PriceSeries struct {
	points []Point
}

// New builds a PriceSeries from parallel timestamp/price slices.
// Observations with non-positive, NaN or Inf prices are dropped rather than
// zero-filled, as are observations that do not move the timestamp forward.
// Slices of unequal length are truncated to the shorter one.
func New(timestamps []int64, prices []float64) PriceSeries {
	n := len(timestamps)
	if len(prices) < n {
		n = len(prices)
	}
	points := make([]Point, 0, n)
	lastTs := int64(math.MinInt64)
	for i := 0; i < n; i++ {
		p := prices[i]
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		if timestamps[i] <= lastTs {
			continue
		}
		points = append(points, Point{Timestamp: timestamps[i], Price: p})
		lastTs = timestamps[i]
	}
	return PriceSeries{points: points}
}

// FromPrices builds a PriceSeries with synthetic period indexes as
// timestamps. Useful for tests and static sample data.
func FromPrices(prices []float64) PriceSeries {
	ts := make([]int64, len(prices))
	for i := range ts {
		ts[i] = int64(i)
	}
	return New(ts, prices)
}

func (s PriceSeries) Len() int    { return len(s.points) }
func (s PriceSeries) Empty() bool { return len(s.points) == 0 }

// Points returns the observations in order.
func (s PriceSeries) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Prices returns the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Price
	}
	return out
}

// Timestamps returns the timestamp column.
func (s PriceSeries) Timestamps() []int64 {
	out := make([]int64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Timestamp
	}
	return out
}

// Last returns the final observation and false when the series is empty.
func (s PriceSeries) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Returns computes period-over-period fractional changes. The first
// observation has no prior reference, so the result has length Len()-1.
// An empty or single-point series yields an empty return series.
func (s PriceSeries) Returns() []float64 {
	if len(s.points) < 2 {
		return nil
	}
	out := make([]float64, len(s.points)-1)
	for i := 1; i < len(s.points); i++ {
		out[i-1] = s.points[i].Price/s.points[i-1].Price - 1
	}
	return out
}

// EquityCurve compounds a return series into cumulative growth factors
// starting at 1.0. The result has length len(returns)+1.
func EquityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = 1.0
	for i, r := range returns {
		curve[i+1] = curve[i] * (1 + r)
	}
	return curve
}

// ReturnsFromEquity recovers the per-period returns from a growth-factor
// curve, inverting EquityCurve.
func ReturnsFromEquity(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		out[i-1] = equity[i]/equity[i-1] - 1
	}
	return out
}
