package storage

import (
	"time"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

// GatherInputs is the hot-path read side of storage (spec §4.3): it builds
// a frame indexed like the base frame for (t.Timeframe(), asset), with one
// column per entry in t.InputIds() (broadcasting scalars/constants,
// reindexing cross-timeframe series) followed by any required_data_source
// base columns not already present. The call holds every needed shared
// lock for its duration, so reads are internally consistent.
func (s *Storage) GatherInputs(asset string, t transform.Base) (*frame.Frame, error) {
	s.baseMu.RLock()
	s.seriesMu.RLock()
	s.scalarMu.RLock()
	s.assetScalarMu.RLock()
	defer s.baseMu.RUnlock()
	defer s.seriesMu.RUnlock()
	defer s.scalarMu.RUnlock()
	defer s.assetScalarMu.RUnlock()

	byAsset, ok := s.baseData[t.Timeframe()]
	if !ok {
		return nil, &MissingBaseDataError{Timeframe: t.Timeframe(), Asset: asset}
	}
	baseFrame, ok := byAsset[asset]
	if !ok {
		return nil, &MissingBaseDataError{Timeframe: t.Timeframe(), Asset: asset}
	}
	targetIndex := baseFrame.Index()

	out := frame.New(append([]time.Time(nil), targetIndex...))
	seen := make(map[string]bool)
	for _, inputID := range t.InputIDs() {
		if seen[inputID] {
			continue
		}
		seen[inputID] = true
		col, found := s.resolveInputColumnLocked(asset, t, inputID, targetIndex)
		if !found {
			continue
		}
		_ = out.SetColumn(inputID, col)
	}

	for _, colName := range t.RequiredDataSources() {
		if seen[colName] {
			continue
		}
		if vals, ok := baseFrame.Column(colName); ok {
			_ = out.SetColumn(colName, vals)
		}
		// Missing base columns are quietly skipped, never null-filled.
	}

	return out, nil
}

// ValidateInputsAvailable is the pre-flight check the default and
// cross-sectional kernels call before gathering: every column t declares
// via InputIDs() must be resolvable for (asset, t.Timeframe()), else the
// transform is skipped for this asset.
func (s *Storage) ValidateInputsAvailable(asset string, t transform.Base) bool {
	s.baseMu.RLock()
	s.seriesMu.RLock()
	s.scalarMu.RLock()
	s.assetScalarMu.RLock()
	defer s.baseMu.RUnlock()
	defer s.seriesMu.RUnlock()
	defer s.scalarMu.RUnlock()
	defer s.assetScalarMu.RUnlock()

	if _, ok := s.baseData[t.Timeframe()][asset]; !ok {
		return false
	}

	for _, inputID := range t.InputIDs() {
		if _, ok := t.Configuration().ConstantValues()[inputID]; ok {
			continue
		}
		if _, ok := s.scalars[inputID]; ok {
			continue
		}
		if byAsset, ok := s.assetScalars[inputID]; ok {
			if _, ok := byAsset[asset]; ok {
				continue
			}
		}
		info, ok := s.ioToTransform.Get(inputID)
		if !ok {
			return false
		}
		if _, ok := s.baseData[info.timeframe][asset]; !ok {
			return false
		}
		cols, ok := s.series[info.timeframe][asset]
		if !ok {
			return false
		}
		if _, ok := cols[inputID]; !ok {
			return false
		}
	}
	return true
}

// resolveInputColumnLocked resolves one input id to a column aligned with
// targetIndex. Callers must already hold read locks on baseMu, seriesMu,
// scalarMu, and assetScalarMu.
func (s *Storage) resolveInputColumnLocked(asset string, t transform.Base, inputID string, targetIndex []time.Time) ([]value.Value, bool) {
	if cv, ok := t.Configuration().ConstantValues()[inputID]; ok {
		return frame.Broadcast(cv, len(targetIndex)), true
	}
	if v, ok := s.scalars[inputID]; ok {
		return frame.Broadcast(v, len(targetIndex)), true
	}
	if byAsset, ok := s.assetScalars[inputID]; ok {
		if v, ok := byAsset[asset]; ok {
			return frame.Broadcast(v, len(targetIndex)), true
		}
	}

	info, ok := s.ioToTransform.Get(inputID)
	if !ok {
		return nil, false
	}
	cols, ok := s.series[info.timeframe][asset]
	if !ok {
		return nil, false
	}
	raw, ok := cols[inputID]
	if !ok {
		return nil, false
	}
	if info.timeframe == t.Timeframe() {
		return raw, true
	}

	srcFrame, ok := s.baseData[info.timeframe][asset]
	if !ok {
		return nil, false
	}
	src := frame.New(append([]time.Time(nil), srcFrame.Index()...))
	_ = src.SetColumn(inputID, raw)

	// Non-numeric labels carry forward their last value across a
	// cross-timeframe reindex; numeric series are null-filled (spec §4.3).
	var reindexed *frame.Frame
	if isNonNumericColumn(raw) {
		reindexed = src.ReindexForwardFill(targetIndex)
	} else {
		reindexed = src.Reindex(targetIndex)
	}
	col, _ := reindexed.Column(inputID)
	return col, true
}

func isNonNumericColumn(col []value.Value) bool {
	for _, v := range col {
		if v.IsNull() {
			continue
		}
		return !v.IsNumeric()
	}
	return false
}
