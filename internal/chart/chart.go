package chart

import (
	"errors"
	"math"
	"strings"
	"time"

	charts "github.com/vicanso/go-charts/v2"
)

// PriceWithSMA renders the close price with fast/slow SMA overlays as a PNG.
// Undefined SMA warm-up values render as gaps.
func PriceWithSMA(symbol string, timestamps []int64, closes, fast, slow []float64) ([]byte, error) {
	if len(timestamps) < 2 || len(closes) != len(timestamps) {
		return nil, errors.New("not enough data points")
	}
	values := [][]float64{closes, nanToNull(fast), nanToNull(slow)}
	return render(strings.ToUpper(symbol)+" • close / SMA", timestamps, values,
		[]string{"close", "fast SMA", "slow SMA"})
}

// EquityCurves renders the strategy and buy-and-hold equity curves as a PNG.
func EquityCurves(symbol string, timestamps []int64, strategy, buyHold []float64) ([]byte, error) {
	if len(timestamps) < 2 || len(strategy) != len(timestamps) || len(buyHold) != len(timestamps) {
		return nil, errors.New("not enough data points")
	}
	return render(strings.ToUpper(symbol)+" • equity", timestamps, [][]float64{strategy, buyHold},
		[]string{"strategy", "buy & hold"})
}

func render(title string, timestamps []int64, values [][]float64, labels []string) ([]byte, error) {
	xAll := make([]string, len(timestamps))
	for i, t := range timestamps {
		xAll[i] = time.Unix(t, 0).UTC().Format("Jan 02")
	}
	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xAll, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.LegendLabelsOptionFunc(labels),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

func nanToNull(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = charts.GetNullValue()
		} else {
			out[i] = v
		}
	}
	return out
}
