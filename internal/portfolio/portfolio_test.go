package portfolio

import (
	"math"
	"testing"

	"tickerlab/internal/metrics"
)

func TestWeightedTwoAssets(t *testing.T) {
	ts := []int64{1, 2, 3}
	assetPrices := [][]float64{
		{100, 110, 120}, // +10%, +9.09%
		{50, 50, 45},    // flat, -10%
	}
	holdings := []Holding{
		{Symbol: "AAA", Weight: 0.5},
		{Symbol: "BBB", Weight: 0.5},
	}

	s, err := Weighted(ts, assetPrices, holdings, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// shares: 50/100 = 0.5 of AAA, 50/50 = 1 of BBB; no cash
	want1 := 0.5*110 + 1*50 // 105
	want2 := 0.5*120 + 1*45 // 105
	if math.Abs(s.Values[1]-want1) > 1e-9 || math.Abs(s.Values[2]-want2) > 1e-9 {
		t.Fatalf("values = %v, want [100 %v %v]", s.Values, want1, want2)
	}
	if len(s.Returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(s.Returns))
	}
	if math.Abs(s.Returns[0]-0.05) > 1e-9 {
		t.Fatalf("first return = %v, want 0.05", s.Returns[0])
	}
}

func TestWeightedResidualCash(t *testing.T) {
	ts := []int64{1, 2}
	assetPrices := [][]float64{{100, 50}}
	holdings := []Holding{{Symbol: "AAA", Weight: 0.4}}

	s, err := Weighted(ts, assetPrices, holdings, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 60 in cash, 0.4 shares of AAA halving: 60 + 0.4*50 = 80
	if math.Abs(s.Values[1]-80) > 1e-9 {
		t.Fatalf("value with residual cash = %v, want 80", s.Values[1])
	}
}

func TestWeightedValidation(t *testing.T) {
	holdings := []Holding{{Symbol: "AAA", Weight: 1}}
	if _, err := Weighted([]int64{1}, [][]float64{{100}}, holdings, 100); err == nil {
		t.Fatalf("expected error for fewer than 2 observations")
	}
	if _, err := Weighted([]int64{1, 2}, [][]float64{{100, 101}, {1, 2}}, holdings, 100); err == nil {
		t.Fatalf("expected error for holdings/prices mismatch")
	}
	if _, err := Weighted([]int64{1, 2}, [][]float64{{0, 101}}, holdings, 100); err == nil {
		t.Fatalf("expected error for non-positive initial price")
	}
	if _, err := Weighted([]int64{1, 2}, [][]float64{{100, 101}}, holdings, 0); err == nil {
		t.Fatalf("expected error for non-positive initial value")
	}
}

func TestStatsSummary(t *testing.T) {
	s := Series{
		Timestamps: []int64{1, 2, 3},
		Values:     []float64{100, 110, 99},
		Returns:    []float64{0.10, -0.10},
	}
	sum := Stats(s, 252)
	if math.Abs(sum.TotalReturn-(-0.01)) > 1e-9 {
		t.Fatalf("total return = %v, want -0.01", sum.TotalReturn)
	}
	if math.Abs(sum.MaxDrawdown-(-0.10)) > 1e-9 {
		t.Fatalf("max drawdown = %v, want -0.10", sum.MaxDrawdown)
	}
	if metrics.IsUndefined(sum.Sharpe) {
		t.Fatalf("sharpe should be defined for varying returns")
	}
}

func TestStatsEmptySeriesUndefined(t *testing.T) {
	sum := Stats(Series{}, 252)
	if !metrics.IsUndefined(sum.CAGR) || !metrics.IsUndefined(sum.Sharpe) || !metrics.IsUndefined(sum.MaxDrawdown) {
		t.Fatalf("empty series must yield undefined metrics: %+v", sum)
	}
}
