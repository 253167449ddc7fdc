package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochflow/engine/internal/builtins"
	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/orchestrator"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
)

func TestBuildExamplePipelineExecutesCleanly(t *testing.T) {
	reg := registry.New()
	mgr := transform.NewManager()
	builtins.Register(reg, mgr)

	descriptions, err := buildExamplePipeline(reg, timeframe.Day1)
	require.NoError(t, err)
	assert.NotEmpty(t, descriptions)

	store := storage.New(zerolog.Nop())
	dispatcher := eventstream.NewDispatcher(zerolog.Nop())
	orch, err := orchestrator.New(mgr, descriptions, store, zerolog.Nop(), dispatcher, nil)
	require.NoError(t, err)

	assets := []string{"AAPL", "MSFT", "TICKER3"}
	baseData := map[timeframe.Timeframe]map[string]*frame.Frame{
		timeframe.Day1: syntheticBaseData(assets, 60),
	}

	result, err := orch.ExecutePipeline(baseData, assets)
	require.NoError(t, err)
	assert.Len(t, result[timeframe.Day1], len(assets))
}

func TestSyntheticBaseDataShape(t *testing.T) {
	data := syntheticBaseData([]string{"AAPL", "MSFT"}, 30)
	require.Len(t, data, 2)
	for _, asset := range []string{"AAPL", "MSFT"} {
		f, ok := data[asset]
		require.True(t, ok)
		assert.Equal(t, 30, f.Len())
		for _, col := range []string{"o", "h", "l", "c", "v"} {
			_, ok := f.Column(col)
			assert.True(t, ok, "expected column %s", col)
		}
	}
}
