package storage

import (
	"sort"
	"time"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/timeframe"
)

// BuildFinalOutput takes shared locks across every cache and, per
// (timeframe, asset), column-wise outer-join-concats (a) every cached
// scalar/asset-scalar broadcast, (b) every registered transform's output
// series, and (c) the base frame, in that order ("scalars || outputs ||
// base-columns", spec §4.3). s.series also holds one entry per base column
// (seeded by InitializeBaseData so downstream transforms read base columns
// exactly like transform outputs); those entries are filtered out here via
// s.ioToTransform so a base column never lands in the outputs layer ahead of
// or interleaved with a real "{id}#{handle}" output. Called once, after the
// graph has drained.
func (s *Storage) BuildFinalOutput() map[timeframe.Timeframe]map[string]*frame.Frame {
	s.baseMu.RLock()
	s.seriesMu.RLock()
	s.scalarMu.RLock()
	s.assetScalarMu.RLock()
	defer s.baseMu.RUnlock()
	defer s.seriesMu.RUnlock()
	defer s.scalarMu.RUnlock()
	defer s.assetScalarMu.RUnlock()

	scalarIDs := sortedKeys(s.scalars)

	out := make(map[timeframe.Timeframe]map[string]*frame.Frame, len(s.baseData))
	for tf, byAsset := range s.baseData {
		out[tf] = make(map[string]*frame.Frame, len(byAsset))
		for asset, baseFrame := range byAsset {
			index := baseFrame.Index()

			scalars := frame.New(copyIndex(index))
			for _, id := range scalarIDs {
				_ = scalars.SetColumn(id, frame.Broadcast(s.scalars[id], len(index)))
			}
			for id, byAssetScalar := range s.assetScalars {
				v, ok := byAssetScalar[asset]
				if !ok {
					continue
				}
				_ = scalars.SetColumn(id, frame.Broadcast(v, len(index)))
			}

			outputs := frame.New(copyIndex(index))
			if cols, ok := s.series[tf][asset]; ok {
				for _, id := range sortedKeys(cols) {
					if _, ok := s.ioToTransform.Get(id); !ok {
						continue
					}
					_ = outputs.SetColumn(id, cols[id])
				}
			}

			out[tf][asset] = frame.OuterJoinConcat(scalars, outputs, baseFrame)
		}
	}
	return out
}

func copyIndex(idx []time.Time) []time.Time {
	return append([]time.Time(nil), idx...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
