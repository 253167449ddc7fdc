// Package chartmeta implements the chart metadata provider (component C9):
// it derives axis/series layout strictly from executed
// transform.Configurations plus their metadata's declared PlotKind, never
// from storage or transform output values — the same separation the
// original chart metadata provider's test suite enforces.
package chartmeta

import (
	"fmt"
	"sort"
	"strings"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const (
	candlestickChartType = "candlestick"
	volumeChartType      = "column"
	indexColumn          = "index"
)

var priceKeys = map[string]bool{"o": true, "h": true, "l": true, "c": true}

const volumeKey = "v"

// YAxis is one Y-axis panel's vertical placement, expressed as percentages
// of the pane's total height.
type YAxis struct {
	Top    int
	Height int
}

// SeriesInfo describes one series (indicator or base chart) to render.
type SeriesInfo struct {
	ID                  string
	Type                string
	Name                string
	DataMapping         map[string]string
	TemplateDataMapping map[string]string
	ZIndex              int
	YAxis               int
	LinkedTo            string // "" means unlinked
	ConfigOptions       map[string]value.OptionValue
}

// ChartPaneMetadata is the complete rendering metadata for one timeframe.
type ChartPaneMetadata struct {
	YAxis         []YAxis
	Series        []SeriesInfo
	SessionRanges []frame.SessionWindow
}

// Provider holds the built per-timeframe chart metadata for one pipeline's
// transform configurations.
type Provider struct {
	panes map[string]*ChartPaneMetadata
}

// New implements the provider's construction pass (spec C.4): base
// candlestick+volume panes per timeframe, then one series per transform
// configuration whose metadata declares a plot kind, in the order given.
func New(timeframes []timeframe.Timeframe, configurations []*transform.Configuration) *Provider {
	panes := make(map[string]*ChartPaneMetadata, len(timeframes))
	axes := newAxisManager()

	for _, tf := range timeframes {
		key := tf.String()
		pane := &ChartPaneMetadata{}

		candlestick := buildCandlestickSeries(key)
		pane.Series = append(pane.Series, candlestick)
		axes.registerSeries(key, candlestick.ID, 0)

		vol := buildVolumeSeries(key)
		pane.Series = append(pane.Series, vol)
		axes.registerSeries(key, vol.ID, 1)

		axes.initializeBaseAxes(key)
		pane.YAxis = axes.axesFor(key)

		panes[key] = pane
	}

	outputSeriesIndex := make(map[string]int)
	seenSessions := make(map[string]map[frame.SessionWindow]bool)

	for _, cfg := range configurations {
		key := cfg.Timeframe.String()
		pane, ok := panes[key]
		if !ok {
			continue // timeframe not declared for charting
		}

		if cfg.Session != nil {
			seen := seenSessions[key]
			if seen == nil {
				seen = make(map[frame.SessionWindow]bool)
				seenSessions[key] = seen
			}
			if !seen[*cfg.Session] {
				seen[*cfg.Session] = true
				pane.SessionRanges = append(pane.SessionRanges, *cfg.Session)
			}
		}

		if cfg.Metadata.PlotKind == registry.PlotKindNone {
			continue
		}

		axis, linkedTo := axes.assignAxis(cfg, key, outputSeriesIndex)
		seriesID := cfg.ID
		axes.registerSeries(key, seriesID, axis)

		pane.Series = append(pane.Series, buildSeries(cfg, axis, linkedTo, seriesID))

		for _, out := range cfg.Metadata.Outputs {
			outputSeriesIndex[cfg.OutputColumnID(out.Name)] = len(pane.Series) - 1
		}

		pane.YAxis = axes.axesFor(key)
	}

	return &Provider{panes: panes}
}

// GetMetaData returns the built per-timeframe chart metadata, keyed by the
// timeframe's normalized string form.
func (p *Provider) GetMetaData() map[string]*ChartPaneMetadata {
	out := make(map[string]*ChartPaneMetadata, len(p.panes))
	for k, v := range p.panes {
		out[k] = v
	}
	return out
}

func buildCandlestickSeries(tf string) SeriesInfo {
	return SeriesInfo{
		ID:   tf + "_candlestick",
		Type: candlestickChartType,
		DataMapping: map[string]string{
			"index": indexColumn,
			"open":  "o",
			"high":  "h",
			"low":   "l",
			"close": "c",
		},
		ZIndex: 0,
		YAxis:  0,
	}
}

func buildVolumeSeries(tf string) SeriesInfo {
	return SeriesInfo{
		ID:   tf + "_volume",
		Name: "Volume",
		Type: volumeChartType,
		DataMapping: map[string]string{
			"index": indexColumn,
			"value": volumeKey,
		},
		ZIndex: 0,
		YAxis:  1,
	}
}

func buildSeries(cfg *transform.Configuration, axis int, linkedTo, seriesID string) SeriesInfo {
	meta := cfg.Metadata
	series := SeriesInfo{
		ID:            seriesID,
		Type:          meta.PlotKind.String(),
		Name:          descriptiveName(cfg),
		DataMapping:   dataMappingFor(cfg),
		ZIndex:        zIndexFor(meta.PlotKind),
		YAxis:         axis,
		LinkedTo:      linkedTo,
		ConfigOptions: cfg.Options,
	}
	return series
}

// descriptiveName renders "ID OPTION=value ..." the way a TradingView-style
// chart legend would, options sorted by name for determinism.
func descriptiveName(cfg *transform.Configuration) string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(cfg.Metadata.ID))

	names := make([]string, 0, len(cfg.Options))
	for name := range cfg.Options {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		opt := cfg.Options[name]
		scalar, ok := opt.Scalar()
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, " %s=%s", name, scalar.String())
	}
	return sb.String()
}

// dataMappingFor maps each declared output's semantic name to its resolved
// column id, the Go rendering of each plot-kind builder's column-mapping
// contract without a per-indicator builder registry.
func dataMappingFor(cfg *transform.Configuration) map[string]string {
	mapping := make(map[string]string, len(cfg.Metadata.Outputs))
	for _, out := range cfg.Metadata.Outputs {
		mapping[out.Name] = cfg.OutputColumnID(out.Name)
	}
	return mapping
}
