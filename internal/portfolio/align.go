package portfolio

import (
	"fmt"

	"tickerlab/internal/series"
)

// Align joins asset histories onto a single timeline so assets with
// different trading calendars can be valued against each other. The shortest
// series sets the timeline (keeps mixed daily/intraday assets from exploding
// the point count); other assets match on timestamp and forward-fill gaps
// from their last observed price. An asset with no observation at or before
// a timeline point falls back to its earliest price.
func Align(assets []series.PriceSeries) ([]int64, [][]float64, error) {
	if len(assets) == 0 {
		return nil, nil, fmt.Errorf("no asset histories provided")
	}
	base := assets[0]
	for _, s := range assets[1:] {
		if s.Len() < base.Len() {
			base = s
		}
	}
	if base.Empty() {
		return nil, nil, fmt.Errorf("asset history is empty")
	}
	timeline := base.Timestamps()

	aligned := make([][]float64, len(assets))
	for i, s := range assets {
		if s.Empty() {
			return nil, nil, fmt.Errorf("asset %d has no observations", i)
		}
		pts := s.Points()
		byTime := make(map[int64]float64, len(pts))
		for _, pt := range pts {
			byTime[pt.Timestamp] = pt.Price
		}

		prices := make([]float64, len(timeline))
		var last float64
		seen := false
		for j, ts := range timeline {
			if p, ok := byTime[ts]; ok {
				last, seen = p, true
			} else if !seen {
				if p, ok := priceAtOrBefore(pts, ts); ok {
					last, seen = p, true
				} else {
					// series starts after the timeline does
					last, seen = pts[0].Price, true
				}
			}
			prices[j] = last
		}
		aligned[i] = prices
	}
	return timeline, aligned, nil
}

// priceAtOrBefore returns the most recent price at or before ts. Points are
// in increasing timestamp order.
func priceAtOrBefore(pts []series.Point, ts int64) (float64, bool) {
	var best float64
	found := false
	for _, pt := range pts {
		if pt.Timestamp > ts {
			break
		}
		best, found = pt.Price, true
	}
	return best, found
}
