package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tickerlab/internal/series"
)

const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

var yahooBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}

// yahooChartResp mirrors the Yahoo v8 chart response, trimmed to the fields
// this module reads.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches close-price history from the Yahoo v8 chart
// endpoint, rotating across the query1/query2 hosts with a fixed backoff
// schedule.
type YahooProvider struct {
	Client   *http.Client
	BaseURLs []string
}

// NewYahooProvider builds a provider using the default Yahoo hosts.
func NewYahooProvider(client *http.Client) *YahooProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &YahooProvider{
		Client: client,
		BaseURLs: []string{
			"https://query1.finance.yahoo.com",
			"https://query2.finance.yahoo.com",
		},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// History fetches the requested range/interval and drops observations Yahoo
// reports with null or non-positive closes.
func (p *YahooProvider) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	var yc yahooChartResp
	var lastErr error
	for attempt := 0; attempt < len(yahooBackoffs)+1; attempt++ {
		for _, base := range p.BaseURLs {
			url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&includePrePost=true&events=div,splits",
				base, req.Symbol, req.Range, req.Interval)
			body, err := p.get(ctx, url, req.Symbol)
			if err != nil {
				lastErr = err
				continue
			}
			if err := json.Unmarshal(body, &yc); err != nil {
				lastErr = fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
				continue
			}
			lastErr = nil
			break
		}
		if lastErr == nil {
			break
		}
		if attempt < len(yahooBackoffs) {
			if err := sleepCtx(ctx, yahooBackoffs[attempt]); err != nil {
				return HistoryResult{}, err
			}
		}
	}
	if lastErr != nil {
		return HistoryResult{}, fmt.Errorf("%w: yahoo chart for %s: %v", ErrNoData, req.Symbol, lastErr)
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return HistoryResult{}, fmt.Errorf("%w: yahoo chart empty for %s", ErrNoData, req.Symbol)
	}
	r := yc.Chart.Result[0]
	ps := filterOutliers(series.New(r.Timestamp, r.Indicators.Quote[0].Close))
	if ps.Empty() {
		return HistoryResult{}, fmt.Errorf("%w: yahoo chart had no usable bars for %s", ErrNoData, req.Symbol)
	}
	return HistoryResult{Series: ps, Source: p.Name()}, nil
}

// LastPrices resolves a recent close per symbol via short daily histories.
// Symbols that cannot be priced are left out of the map.
func (p *YahooProvider) LastPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))
	for _, sym := range symbols {
		res, err := p.History(ctx, HistoryRequest{Symbol: sym, Range: "5d", Interval: "1d"})
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		if last, ok := res.Series.Last(); ok {
			out[sym] = Quote{Price: decimal.NewFromFloat(last.Price), Source: p.Name()}
		}
	}
	return out, nil
}

func (p *YahooProvider) get(ctx context.Context, url, symbol string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo returned 429: Edge: Too Many Requests")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
