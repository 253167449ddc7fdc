package storage

import (
	"time"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/report"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

// StoreTransformOutput writes one entry per declared output of t. Columns
// present in result are reindexed onto the base index for (t.Timeframe(),
// asset) and stored; declared outputs missing from result get a typed
// all-null column synthesized from the output's declared IODataType (spec
// §4.3). Scalar-category transforms are stored once in the scalar cache
// instead (the "scalar optimization").
func (s *Storage) StoreTransformOutput(asset string, t transform.Base, result *frame.Frame) error {
	isScalar := t.Configuration().Metadata.Category == registry.CategoryScalar

	s.baseMu.RLock()
	baseFrame, ok := s.baseData[t.Timeframe()][asset]
	s.baseMu.RUnlock()
	if !ok {
		return &MissingBaseDataError{Timeframe: t.Timeframe(), Asset: asset}
	}
	targetIndex := baseFrame.Index()

	for _, out := range t.OutputMetadata() {
		colID := t.OutputID(out.Name)

		if isScalar {
			v := scalarValueFromResult(result, out)
			s.scalarMu.Lock()
			s.scalars[colID] = v
			s.scalarMu.Unlock()
			continue
		}

		var col []value.Value
		if result != nil && result.HasColumn(out.Name) {
			col = reindexSingleColumn(result, out.Name, targetIndex)
		} else {
			col = make([]value.Value, len(targetIndex))
			nullKind := ioDataTypeToValueKind(out.DataType)
			for i := range col {
				col[i] = value.MustNull(nullKind)
			}
			event := s.log.Debug()
			if out.DataType == registry.IODataTypeAny {
				event = s.log.Warn()
			}
			event.Str("output", colID).Str("arrow_type", out.DataType.ArrowType()).
				Msg("synthesized null column for missing declared output")
		}

		s.seriesMu.Lock()
		if _, ok := s.series[t.Timeframe()]; !ok {
			s.series[t.Timeframe()] = make(map[string]map[string][]value.Value)
		}
		if _, ok := s.series[t.Timeframe()][asset]; !ok {
			s.series[t.Timeframe()][asset] = make(map[string][]value.Value)
		}
		s.series[t.Timeframe()][asset][colID] = col
		s.seriesMu.Unlock()
	}
	return nil
}

// StoreAssetScalar records a per-asset global scalar (e.g. an is_asset_ref
// switch), shared across timeframes.
func (s *Storage) StoreAssetScalar(asset, outID string, v value.Value) {
	s.assetScalarMu.Lock()
	defer s.assetScalarMu.Unlock()
	if _, ok := s.assetScalars[outID]; !ok {
		s.assetScalars[outID] = make(map[string]value.Value)
	}
	s.assetScalars[outID][asset] = v
}

// StoreReport merges dashboard into the cached report under key (asset id,
// or the sentinel "ALL" for cross-sectional reports), per spec §4.5.1's
// merge semantics.
func (s *Storage) StoreReport(key string, dashboard *report.Dashboard) {
	if dashboard.IsEmpty() {
		return
	}
	s.reportMu.Lock()
	defer s.reportMu.Unlock()
	existing, ok := s.reports[key]
	if !ok {
		existing = &report.Dashboard{}
		s.reports[key] = existing
	}
	existing.MergeFrom(dashboard)
}

// StoreEventMarker appends marker to asset's marker list.
func (s *Storage) StoreEventMarker(asset string, marker *report.EventMarker) {
	s.markerMu.Lock()
	defer s.markerMu.Unlock()
	s.markers[asset] = append(s.markers[asset], marker)
}

// Reports returns the merged, card-grouped report cache, keyed by asset id
// or the "ALL" sentinel.
func (s *Storage) Reports() map[string]*report.Dashboard {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	out := make(map[string]*report.Dashboard, len(s.reports))
	for k, v := range s.reports {
		report.AssignCardGrouping(v)
		out[k] = v
	}
	return out
}

// EventMarkers returns the event-marker cache, keyed by asset id.
func (s *Storage) EventMarkers() map[string][]*report.EventMarker {
	s.markerMu.RLock()
	defer s.markerMu.RUnlock()
	out := make(map[string][]*report.EventMarker, len(s.markers))
	for k, v := range s.markers {
		out[k] = v
	}
	return out
}

func scalarValueFromResult(result *frame.Frame, out registry.OutputSpec) value.Value {
	if result != nil {
		if col, ok := result.Column(out.Name); ok && len(col) > 0 {
			return col[len(col)-1]
		}
	}
	return value.MustNull(ioDataTypeToValueKind(out.DataType))
}

func ioDataTypeToValueKind(dt registry.IODataType) value.Kind {
	switch dt {
	case registry.IODataTypeInteger:
		return value.KindInteger
	case registry.IODataTypeDecimal:
		return value.KindDecimal
	case registry.IODataTypeBoolean:
		return value.KindBoolean
	case registry.IODataTypeTimestamp:
		return value.KindTimestamp
	default:
		return value.KindString
	}
}

// reindexSingleColumn aligns one column of result onto targetIndex, using
// the same numeric-null-fill / non-numeric-forward-fill rule GatherInputs
// applies to cross-timeframe reads.
func reindexSingleColumn(result *frame.Frame, name string, targetIndex []time.Time) []value.Value {
	col, _ := result.Column(name)
	src := frame.New(append([]time.Time(nil), result.Index()...))
	_ = src.SetColumn(name, col)

	var reindexed *frame.Frame
	if isNonNumericColumn(col) {
		reindexed = src.ReindexForwardFill(targetIndex)
	} else {
		reindexed = src.Reindex(targetIndex)
	}
	out, _ := reindexed.Column(name)
	return out
}
