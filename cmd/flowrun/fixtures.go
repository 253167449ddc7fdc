package main

import (
	"math"
	"time"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/value"
)

// syntheticBaseData builds a deterministic per-asset OHLCV frame for every
// asset, so the demo has something to run ExecutePipeline against without
// depending on a real market data feed. It follows the teacher's original
// (C++) test harness shape described by flow_source_tester.cpp and
// fake_data_sources.h: synthetic multi-asset daily bars seeded from the
// asset's position in the list, not real data.
func syntheticBaseData(assets []string, bars int) map[string]*frame.Frame {
	out := make(map[string]*frame.Frame, len(assets))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, bars)
	for i := range index {
		index[i] = start.AddDate(0, 0, i)
	}

	for assetIdx, asset := range assets {
		open := make([]value.Value, bars)
		high := make([]value.Value, bars)
		low := make([]value.Value, bars)
		close := make([]value.Value, bars)
		vol := make([]value.Value, bars)

		base := 100.0 + float64(assetIdx)*10
		for i := 0; i < bars; i++ {
			wave := math.Sin(float64(i)/5.0+float64(assetIdx)) * 3
			drift := float64(i) * 0.05
			c := base + drift + wave
			o := c - 0.3
			h := c + 0.8
			l := c - 0.8

			open[i] = value.Decimal(o)
			high[i] = value.Decimal(h)
			low[i] = value.Decimal(l)
			close[i] = value.Decimal(c)
			vol[i] = value.Decimal(1_000_000 + float64(i%7)*10_000)
		}

		f := frame.New(index)
		_ = f.SetColumn("o", open)
		_ = f.SetColumn("h", high)
		_ = f.SetColumn("l", low)
		_ = f.SetColumn("c", close)
		_ = f.SetColumn("v", vol)
		out[asset] = f
	}
	return out
}
