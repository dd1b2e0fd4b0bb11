package marketdata

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/shopspring/decimal"

	"tickerlab/internal/series"
)

// staticPoints is the number of daily observations a static series carries.
const staticPoints = 252

// StaticProvider is the last-resort source: a deterministic synthetic daily
// series per symbol, seeded from the symbol name so repeated lookups agree.
// It lets the rest of the pipeline run when every network source is down.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

// SourceStatic marks quotes and histories that come from synthetic sample
// data rather than a market source.
const SourceStatic = "static-sample"

func (p *StaticProvider) Name() string { return SourceStatic }

func (p *StaticProvider) History(_ context.Context, req HistoryRequest) (HistoryResult, error) {
	return HistoryResult{Series: syntheticSeries(req.Symbol), Source: p.Name()}, nil
}

// LastPrices returns the final close of each symbol's synthetic series.
func (p *StaticProvider) LastPrices(_ context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))
	for _, sym := range symbols {
		if last, ok := syntheticSeries(sym).Last(); ok {
			out[sym] = Quote{Price: decimal.NewFromFloat(last.Price), Source: p.Name()}
		}
	}
	return out, nil
}

func syntheticSeries(symbol string) series.PriceSeries {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	const daySeconds = 86400
	start := int64(1704067200) // 2024-01-01 UTC
	price := 50 + rng.Float64()*250

	ts := make([]int64, staticPoints)
	prices := make([]float64, staticPoints)
	for i := 0; i < staticPoints; i++ {
		ts[i] = start + int64(i)*daySeconds
		prices[i] = price
		price *= 1 + (rng.Float64()-0.48)*0.02
	}
	return series.New(ts, prices)
}
