package chartmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
)

func cfgWithInput(id, plotKindID string, plotKind registry.PlotKind, tf timeframe.Timeframe, slot string, ref transform.InputValue) *transform.Configuration {
	meta := &registry.Metadata{
		ID:       plotKindID,
		PlotKind: plotKind,
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
	}
	if slot != "" {
		meta.Inputs = []registry.InputSpec{{Name: slot, DataType: registry.IODataTypeDecimal}}
	}
	cfg := &transform.Configuration{
		Metadata: meta,
		ID:       id,
		Timeframe: tf,
	}
	if slot != "" {
		cfg.Inputs = map[string][]transform.InputValue{slot: {ref}}
	}
	return cfg
}

func TestNewBuildsBasePanesPerTimeframe(t *testing.T) {
	p := New([]timeframe.Timeframe{timeframe.Day1}, nil)
	meta := p.GetMetaData()
	pane, ok := meta[timeframe.Day1.String()]
	require.True(t, ok)
	require.Len(t, pane.Series, 2)
	assert.Equal(t, candlestickChartType, pane.Series[0].Type)
	assert.Equal(t, volumeChartType, pane.Series[1].Type)
	require.Len(t, pane.YAxis, 2)
	assert.Equal(t, YAxis{Top: 0, Height: 70}, pane.YAxis[0])
	assert.Equal(t, YAxis{Top: 70, Height: 30}, pane.YAxis[1])
}

func TestAssignAxisPriceOverlayLinksToCandlestick(t *testing.T) {
	sma := cfgWithInput("1", "sma", registry.PlotKindLine, timeframe.Day1, "in", transform.FromNodeRef("", "c"))
	p := New([]timeframe.Timeframe{timeframe.Day1}, []*transform.Configuration{sma})
	pane := p.GetMetaData()[timeframe.Day1.String()]

	require.Len(t, pane.Series, 3)
	series := pane.Series[2]
	assert.Equal(t, 0, series.YAxis)
	assert.Equal(t, timeframe.Day1.String()+"_candlestick", series.LinkedTo)
}

func TestAssignAxisVolumeOverlayLinksToVolume(t *testing.T) {
	volSma := cfgWithInput("1", "sma", registry.PlotKindLine, timeframe.Day1, "in", transform.FromNodeRef("", "v"))
	p := New([]timeframe.Timeframe{timeframe.Day1}, []*transform.Configuration{volSma})
	pane := p.GetMetaData()[timeframe.Day1.String()]

	series := pane.Series[2]
	assert.Equal(t, 1, series.YAxis)
	assert.Equal(t, timeframe.Day1.String()+"_volume", series.LinkedTo)
}

func TestAssignAxisPanelIndicatorGetsOwnAxis(t *testing.T) {
	rsi := cfgWithInput("1", "rsi", registry.PlotKindHistogram, timeframe.Day1, "in", transform.FromNodeRef("", "c"))
	p := New([]timeframe.Timeframe{timeframe.Day1}, []*transform.Configuration{rsi})
	pane := p.GetMetaData()[timeframe.Day1.String()]

	series := pane.Series[2]
	assert.Equal(t, 2, series.YAxis)
	assert.Empty(t, series.LinkedTo)
	require.Len(t, pane.YAxis, 3)
}

func TestAssignAxisChainedTransformLinksToProducerAxis(t *testing.T) {
	sma := cfgWithInput("1", "sma", registry.PlotKindLine, timeframe.Day1, "in", transform.FromNodeRef("", "c"))
	minSma := cfgWithInput("2", "min", registry.PlotKindLine, timeframe.Day1, "in", transform.FromNodeRef("1", "result"))
	p := New([]timeframe.Timeframe{timeframe.Day1}, []*transform.Configuration{sma, minSma})
	pane := p.GetMetaData()[timeframe.Day1.String()]

	require.Len(t, pane.Series, 4)
	smaSeries := pane.Series[2]
	minSeries := pane.Series[3]
	assert.Equal(t, smaSeries.YAxis, minSeries.YAxis)
	assert.Equal(t, "1", minSeries.LinkedTo)
}

func TestCreateNewAxisRecalculatesHeights(t *testing.T) {
	rsi := cfgWithInput("1", "rsi", registry.PlotKindHistogram, timeframe.Day1, "", transform.InputValue{})
	macd := cfgWithInput("2", "macd", registry.PlotKindHistogram, timeframe.Day1, "", transform.InputValue{})
	p := New([]timeframe.Timeframe{timeframe.Day1}, []*transform.Configuration{rsi, macd})
	pane := p.GetMetaData()[timeframe.Day1.String()]

	require.Len(t, pane.YAxis, 4)
	assert.Equal(t, YAxis{Top: 0, Height: 40}, pane.YAxis[0])
	assert.Equal(t, YAxis{Top: 40, Height: 20}, pane.YAxis[1])
	assert.Equal(t, YAxis{Top: 60, Height: 20}, pane.YAxis[2])
	assert.Equal(t, YAxis{Top: 80, Height: 20}, pane.YAxis[3])
}

func TestPlotKindNoneIsSkipped(t *testing.T) {
	invisible := cfgWithInput("1", "helper", registry.PlotKindNone, timeframe.Day1, "in", transform.FromNodeRef("", "c"))
	p := New([]timeframe.Timeframe{timeframe.Day1}, []*transform.Configuration{invisible})
	pane := p.GetMetaData()[timeframe.Day1.String()]
	assert.Len(t, pane.Series, 2)
}
