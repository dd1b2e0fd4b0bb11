package marketdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Chain tries history providers in priority order until one yields a
// non-empty series. The winning source's name travels with the result.
type Chain struct {
	log       zerolog.Logger
	providers []HistoryProvider
}

// NewChain builds an ordered-fallback provider. Priority follows argument
// order.
func NewChain(log zerolog.Logger, providers ...HistoryProvider) *Chain {
	return &Chain{log: log, providers: providers}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	var lastErr error
	for _, p := range c.providers {
		res, err := p.History(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return HistoryResult{}, ctx.Err()
			}
			c.log.Warn().Str("source", p.Name()).Str("symbol", req.Symbol).Err(err).Msg("source failed, trying next")
			lastErr = err
			continue
		}
		if res.Series.Empty() {
			c.log.Warn().Str("source", p.Name()).Str("symbol", req.Symbol).Msg("source returned empty series, trying next")
			continue
		}
		return res, nil
	}
	if lastErr != nil {
		return HistoryResult{}, fmt.Errorf("%w: all sources failed for %s: %v", ErrNoData, req.Symbol, lastErr)
	}
	return HistoryResult{}, fmt.Errorf("%w: all sources empty for %s", ErrNoData, req.Symbol)
}

// PriceChain merges last-price lookups across providers in priority order.
// Later providers only fill symbols earlier ones could not price, so partial
// outages degrade per symbol instead of failing the whole request.
type PriceChain struct {
	log       zerolog.Logger
	providers []LastPriceProvider
}

func NewPriceChain(log zerolog.Logger, providers ...LastPriceProvider) *PriceChain {
	return &PriceChain{log: log, providers: providers}
}

func (c *PriceChain) Name() string { return "price-chain" }

func (c *PriceChain) LastPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))
	missing := symbols
	for _, p := range c.providers {
		if len(missing) == 0 {
			break
		}
		quotes, err := p.LastPrices(ctx, missing)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			c.log.Warn().Str("source", p.Name()).Err(err).Msg("last-price source failed, trying next")
			continue
		}
		var still []string
		for _, sym := range missing {
			if q, ok := quotes[sym]; ok && q.Price.IsPositive() {
				out[sym] = q
			} else {
				still = append(still, sym)
			}
		}
		missing = still
	}
	return out, nil
}
