package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"tickerlab/internal/series"
)

// ErrNoData reports that a provider could not supply any observations for a
// request. Callers treat it as missing data for that symbol, not a fatal
// failure; other symbols complete normally.
var ErrNoData = errors.New("no data")

// HistoryRequest identifies a price-history lookup. Range and Interval use
// Yahoo-style tokens ("1y", "1d", "5m", ...).
type HistoryRequest struct {
	Symbol   string
	Range    string
	Interval string
}

func (r HistoryRequest) key() string {
	return r.Symbol + "|" + r.Range + "|" + r.Interval
}

// HistoryResult carries the fetched series together with the name of the
// source that actually supplied it, for observability through fallbacks
// and caches.
type HistoryResult struct {
	Series series.PriceSeries
	Source string
}

// HistoryProvider supplies historical close prices for a symbol. A provider
// may return an empty or partial series; translating network failures into
// ErrNoData happens here so the numeric core never sees them.
type HistoryProvider interface {
	Name() string
	History(ctx context.Context, req HistoryRequest) (HistoryResult, error)
}

// Quote is a last observed price together with the source that supplied it,
// so callers can tell a real market price from a synthetic fallback.
type Quote struct {
	Price  decimal.Decimal
	Source string
}

// LastPriceProvider resolves current prices for a set of tickers. The result
// map may be partial; requested symbols it could not price are simply absent.
type LastPriceProvider interface {
	Name() string
	LastPrices(ctx context.Context, symbols []string) (map[string]Quote, error)
}
