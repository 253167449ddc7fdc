package chartmeta

import "github.com/epochflow/engine/internal/registry"

// zIndexFor orders overlapping series within a pane: background fills
// (heatmaps) render under line/marker series, which render under the base
// candlestick/volume series' own overlays.
var plotKindZIndex = map[registry.PlotKind]int{
	registry.PlotKindHeatmap:     0,
	registry.PlotKindArea:        5,
	registry.PlotKindHistogram:   5,
	registry.PlotKindTable:       5,
	registry.PlotKindLine:        10,
	registry.PlotKindScatter:     10,
	registry.PlotKindCandlestick: 10,
	registry.PlotKindMarker:      15,
}

func zIndexFor(kind registry.PlotKind) int {
	return plotKindZIndex[kind]
}
