package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tickerlab/internal/series"
)

// yahooSparkResp mirrors the Yahoo v7 spark response (trimmed).
type yahooSparkResp struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Timestamp []int64   `json:"timestamp"`
				Close     []float64 `json:"close"`
			} `json:"response"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"spark"`
}

// SparkProvider fetches close-price history from the Yahoo v7 spark
// endpoint. It serves as a secondary source behind the chart endpoint.
type SparkProvider struct {
	Client   *http.Client
	BaseURLs []string
}

// NewSparkProvider builds a provider using the default Yahoo hosts.
func NewSparkProvider(client *http.Client) *SparkProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &SparkProvider{
		Client: client,
		BaseURLs: []string{
			"https://query1.finance.yahoo.com",
			"https://query2.finance.yahoo.com",
		},
	}
}

func (p *SparkProvider) Name() string { return "yahoo-spark" }

func (p *SparkProvider) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	yahoo := &YahooProvider{Client: p.Client}
	var lastErr error
	for _, base := range p.BaseURLs {
		url := fmt.Sprintf("%s/v7/finance/spark?symbols=%s&range=%s&interval=%s",
			base, strings.ToUpper(req.Symbol), req.Range, req.Interval)
		body, err := yahoo.get(ctx, url, req.Symbol)
		if err != nil {
			lastErr = err
			continue
		}
		var sp yahooSparkResp
		if err := json.Unmarshal(body, &sp); err != nil {
			lastErr = fmt.Errorf("failed to parse yahoo spark json: %v", err)
			continue
		}
		if len(sp.Spark.Result) == 0 || len(sp.Spark.Result[0].Response) == 0 {
			lastErr = fmt.Errorf("spark response empty for %s", req.Symbol)
			continue
		}
		r := sp.Spark.Result[0].Response[0]
		ps := filterOutliers(series.New(r.Timestamp, r.Close))
		if ps.Empty() {
			lastErr = fmt.Errorf("spark had no usable bars for %s", req.Symbol)
			continue
		}
		return HistoryResult{Series: ps, Source: p.Name()}, nil
	}
	return HistoryResult{}, fmt.Errorf("%w: yahoo spark for %s: %v", ErrNoData, req.Symbol, lastErr)
}
