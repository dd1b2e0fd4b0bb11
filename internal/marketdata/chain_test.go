package marketdata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tickerlab/internal/series"
)

type stubProvider struct {
	name   string
	series series.PriceSeries
	err    error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) History(context.Context, HistoryRequest) (HistoryResult, error) {
	if p.err != nil {
		return HistoryResult{}, p.err
	}
	return HistoryResult{Series: p.series, Source: p.name}, nil
}

func TestChainFallsThroughToNextSource(t *testing.T) {
	primary := &stubProvider{name: "primary", err: fmt.Errorf("%w: 429", ErrNoData)}
	empty := &stubProvider{name: "empty"}
	last := &stubProvider{name: "sample", series: series.FromPrices([]float64{10, 11})}
	chain := NewChain(zerolog.Nop(), primary, empty, last)

	res, err := chain.History(context.Background(), HistoryRequest{Symbol: "VTI"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != "sample" {
		t.Fatalf("chosen source = %q, want %q", res.Source, "sample")
	}
	if res.Series.Len() != 2 {
		t.Fatalf("expected the fallback series, got %d bars", res.Series.Len())
	}
}

func TestChainReportsFirstSuccessfulSource(t *testing.T) {
	first := &stubProvider{name: "first", series: series.FromPrices([]float64{1, 2})}
	second := &stubProvider{name: "second", series: series.FromPrices([]float64{3, 4})}
	chain := NewChain(zerolog.Nop(), first, second)

	res, err := chain.History(context.Background(), HistoryRequest{Symbol: "VTI"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != "first" {
		t.Fatalf("chosen source = %q, want %q", res.Source, "first")
	}
}

func TestChainAllSourcesFail(t *testing.T) {
	a := &stubProvider{name: "a", err: fmt.Errorf("%w: down", ErrNoData)}
	b := &stubProvider{name: "b", err: fmt.Errorf("%w: down", ErrNoData)}
	chain := NewChain(zerolog.Nop(), a, b)

	_, err := chain.History(context.Background(), HistoryRequest{Symbol: "VTI"})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

type stubPriceProvider struct {
	name   string
	prices map[string]decimal.Decimal
	err    error
}

func (p *stubPriceProvider) Name() string { return p.name }

func (p *stubPriceProvider) LastPrices(context.Context, []string) (map[string]Quote, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]Quote, len(p.prices))
	for sym, price := range p.prices {
		out[sym] = Quote{Price: price, Source: p.name}
	}
	return out, nil
}

func TestPriceChainMergesPartialResults(t *testing.T) {
	first := &stubPriceProvider{name: "first", prices: map[string]decimal.Decimal{
		"VTI": decimal.NewFromInt(200),
	}}
	second := &stubPriceProvider{name: "second", prices: map[string]decimal.Decimal{
		"VTI":  decimal.NewFromInt(999), // must not override the first source
		"VXUS": decimal.NewFromInt(55),
	}}
	chain := NewPriceChain(zerolog.Nop(), first, second)

	got, err := chain.LastPrices(context.Background(), []string{"VTI", "VXUS", "GONE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["VTI"].Price.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("VTI price = %s, want 200 from the first source", got["VTI"].Price)
	}
	if !got["VXUS"].Price.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("VXUS price = %s, want 55 from the second source", got["VXUS"].Price)
	}
	if _, ok := got["GONE"]; ok {
		t.Fatalf("unpriceable symbol must stay absent, got %v", got)
	}
}

func TestPriceChainReportsPerSymbolSource(t *testing.T) {
	market := &stubPriceProvider{name: "market", prices: map[string]decimal.Decimal{
		"VTI": decimal.NewFromInt(200),
	}}
	sample := &stubPriceProvider{name: SourceStatic, prices: map[string]decimal.Decimal{
		"VTI":  decimal.NewFromInt(999),
		"VXUS": decimal.NewFromInt(55),
	}}
	chain := NewPriceChain(zerolog.Nop(), market, sample)

	got, err := chain.LastPrices(context.Background(), []string{"VTI", "VXUS"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["VTI"].Source != "market" {
		t.Fatalf("VTI source = %q, want %q", got["VTI"].Source, "market")
	}
	// a quote filled by the sample fallback must be identifiable as such
	if got["VXUS"].Source != SourceStatic {
		t.Fatalf("VXUS source = %q, want %q", got["VXUS"].Source, SourceStatic)
	}
}

func TestPriceChainSkipsFailingSource(t *testing.T) {
	broken := &stubPriceProvider{name: "broken", err: errors.New("boom")}
	working := &stubPriceProvider{name: "working", prices: map[string]decimal.Decimal{
		"BND": decimal.NewFromInt(75),
	}}
	chain := NewPriceChain(zerolog.Nop(), broken, working)

	got, err := chain.LastPrices(context.Background(), []string{"BND"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["BND"].Price.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("BND price = %s, want 75", got["BND"].Price)
	}
}
