package chartmeta

import (
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
)

// axisManager tracks, per timeframe, the Y-axis layout and which series sits
// on which axis — grounded on the original's AxisManager (test/unit/
// chart_metadata/axis_manager_test.cpp): price overlays share axis 0 with
// the candlestick series, volume overlays share axis 1 with the volume
// series, a transform chained off another series' output inherits that
// series' axis, and everything else (panel indicators) gets a fresh axis
// appended to the pane.
type axisManager struct {
	axes        map[string][]YAxis
	seriesAxis  map[string]map[string]int // timeframe -> series id -> axis index
	seriesOrder map[string][]string       // timeframe -> series ids in registration order
}

func newAxisManager() *axisManager {
	return &axisManager{
		axes:        make(map[string][]YAxis),
		seriesAxis:  make(map[string]map[string]int),
		seriesOrder: make(map[string][]string),
	}
}

// initializeBaseAxes seeds tf with the bootstrap price/volume split (70/30)
// if no axes exist yet.
func (m *axisManager) initializeBaseAxes(tf string) {
	if len(m.axes[tf]) > 0 {
		return
	}
	m.axes[tf] = []YAxis{
		{Top: 0, Height: 70},
		{Top: 70, Height: 30},
	}
}

func (m *axisManager) axesFor(tf string) []YAxis {
	out := make([]YAxis, len(m.axes[tf]))
	copy(out, m.axes[tf])
	return out
}

// registerSeries records that seriesID occupies axis on tf.
func (m *axisManager) registerSeries(tf, seriesID string, axis int) {
	if m.seriesAxis[tf] == nil {
		m.seriesAxis[tf] = make(map[string]int)
	}
	m.seriesAxis[tf][seriesID] = axis
	m.seriesOrder[tf] = append(m.seriesOrder[tf], seriesID)
}

// seriesIDAtIndex returns the series id registered at position idx on tf,
// "" if out of range — a small diagnostic mirror of the original's
// GetSeriesIdAtIndex.
func (m *axisManager) seriesIDAtIndex(tf string, idx int) string {
	order := m.seriesOrder[tf]
	if idx < 0 || idx >= len(order) {
		return ""
	}
	return order[idx]
}

// createNewAxis appends a fresh axis to tf and recomputes every axis's
// height: the price axis (index 0) gets a double share, every other axis an
// equal share, stacked top-to-bottom. Returns the new axis's index.
func (m *axisManager) createNewAxis(tf string) int {
	axes := m.axes[tf]
	axes = append(axes, YAxis{})
	total := len(axes)
	share := 100 / (total + 1)

	top := 0
	for i := range axes {
		height := share
		if i == 0 {
			height = share * 2
		}
		axes[i] = YAxis{Top: top, Height: height}
		top += height
	}
	m.axes[tf] = axes
	return total - 1
}

// assignAxis implements the original AxisManager::AssignAxis contract: a
// plot kind that requires its own axis always gets a fresh one; otherwise
// the transform's NodeRef inputs decide whether it overlays price, overlays
// volume, or links onto an already-registered producer's axis.
func (m *axisManager) assignAxis(
	cfg *transform.Configuration,
	tf string,
	outputSeriesIndex map[string]int,
) (axis int, linkedTo string) {
	if requiresOwnAxis(cfg.Metadata.PlotKind) {
		return m.createNewAxis(tf), ""
	}

	for _, colID := range nodeRefColumnIDs(cfg) {
		if priceKeys[colID] {
			return 0, tf + "_candlestick"
		}
	}
	for _, colID := range nodeRefColumnIDs(cfg) {
		if colID == volumeKey {
			return 1, tf + "_volume"
		}
	}
	for _, colID := range nodeRefColumnIDs(cfg) {
		if idx, ok := outputSeriesIndex[colID]; ok {
			seriesID := m.seriesIDAtIndex(tf, idx)
			return m.seriesAxis[tf][seriesID], seriesID
		}
	}
	return m.createNewAxis(tf), ""
}

func nodeRefColumnIDs(cfg *transform.Configuration) []string {
	var ids []string
	for _, vals := range cfg.Inputs {
		for _, iv := range vals {
			if ref, ok := iv.NodeRef(); ok {
				ids = append(ids, ref.ColumnID())
			}
		}
	}
	return ids
}

// requiresOwnAxis classifies a PlotKind as panel (its own axis, separate
// value range) or overlay (shares the price/volume axis it's linked to).
// Histogram/Heatmap/Table read as bounded-or-unbounded-range panel
// indicators (MACD-style histograms, correlation heatmaps, scalar tables);
// Line/Area/Scatter/Marker/Candlestick overlay the series they annotate.
func requiresOwnAxis(kind registry.PlotKind) bool {
	switch kind {
	case registry.PlotKindHistogram, registry.PlotKindHeatmap, registry.PlotKindTable:
		return true
	default:
		return false
	}
}
