package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tickerlab/internal/series"
)

func glitchedSeries(n int, badIdx int) ([]int64, []float64) {
	ts := make([]int64, n)
	prices := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = int64(i+1) * 86400
		prices[i] = 100 + float64(i)
	}
	if badIdx >= 0 {
		prices[badIdx] = 9000
	}
	return ts, prices
}

func TestFilterOutliersDropsBadTick(t *testing.T) {
	ts, prices := glitchedSeries(21, 10)
	got := filterOutliers(series.New(ts, prices))
	if got.Len() != 20 {
		t.Fatalf("expected the bad tick dropped, got %d of 21 bars", got.Len())
	}
	for _, p := range got.Prices() {
		if p == 9000 {
			t.Fatalf("bad tick survived filtering: %v", got.Prices())
		}
	}
}

func TestFilterOutliersLeavesShortSeriesAlone(t *testing.T) {
	ts, prices := glitchedSeries(5, 2)
	got := filterOutliers(series.New(ts, prices))
	if got.Len() != 5 {
		t.Fatalf("short series must pass through unchanged, got %d bars", got.Len())
	}
}

func TestFilterOutliersLeavesFlatSeriesAlone(t *testing.T) {
	ts := make([]int64, 21)
	prices := make([]float64, 21)
	for i := range ts {
		ts[i] = int64(i+1) * 86400
		prices[i] = 100
	}
	got := filterOutliers(series.New(ts, prices))
	if got.Len() != 21 {
		t.Fatalf("zero-IQR series must pass through unchanged, got %d bars", got.Len())
	}
}

func TestYahooHistoryRejectsBadTicks(t *testing.T) {
	ts, prices := glitchedSeries(21, 10)
	tsParts := make([]string, len(ts))
	clParts := make([]string, len(prices))
	for i := range ts {
		tsParts[i] = fmt.Sprintf("%d", ts[i])
		clParts[i] = fmt.Sprintf("%g", prices[i])
	}
	body := fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`,
		strings.Join(tsParts, ","), strings.Join(clParts, ","))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewYahooProvider(srv.Client())
	p.BaseURLs = []string{srv.URL}

	res, err := p.History(context.Background(), HistoryRequest{Symbol: "VTI", Range: "1y", Interval: "1d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Series.Len() != 20 {
		t.Fatalf("expected the glitch tick cleaned out of the fetch, got %d bars", res.Series.Len())
	}
	for _, pr := range res.Series.Prices() {
		if pr == 9000 {
			t.Fatalf("glitch tick reached the caller")
		}
	}
}
