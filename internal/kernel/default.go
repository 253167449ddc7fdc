package kernel

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/transform"
)

// RunDefault implements spec §4.4.1: the per-asset kernel every ordinary
// transform uses. intraday_only gates the whole node; per asset it
// validates input availability, gathers, optionally drops null rows and
// slices to the session window, runs TransformData, stores dashboards and
// event markers for the relevant categories, and stores the output.
func RunDefault(t transform.Base, s *storage.Storage, log zerolog.Logger, token *eventstream.CancellationToken) (Result, error) {
	meta := t.Configuration().Metadata
	assets := s.Assets()

	if meta.IntradayOnly && !t.Timeframe().IsIntraday() {
		for _, asset := range assets {
			storeEmpty(s, asset, t, log)
		}
		return Result{}, nil
	}

	var processed, failed atomic.Int32
	parallelForAssets(assets, func(asset string) {
		switch runDefaultForAsset(t, s, log, token, meta, asset) {
		case outcomeProcessed:
			processed.Add(1)
		case outcomeFailed:
			failed.Add(1)
		}
	})
	return Result{AssetsProcessed: int(processed.Load()), AssetsFailed: int(failed.Load())}, nil
}

func runDefaultForAsset(
	t transform.Base,
	s *storage.Storage,
	log zerolog.Logger,
	token *eventstream.CancellationToken,
	meta *registry.Metadata,
	asset string,
) assetOutcome {
	if token != nil && token.IsCancelled() {
		return outcomeSkipped
	}

	if !s.ValidateInputsAvailable(asset, t) {
		storeEmpty(s, asset, t, log)
		return outcomeSkipped
	}

	f, err := s.GatherInputs(asset, t)
	if err != nil {
		log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "gather inputs failed", err))
		return outcomeFailed
	}

	if !meta.AllowNullInputs {
		f = f.DropNullRows()
	}
	if meta.RequiresSession && t.Configuration().Session != nil {
		f = f.SliceSession(*t.Configuration().Session)
	}
	if f.Empty() {
		storeEmpty(s, asset, t, log)
		return outcomeSkipped
	}

	out := runTransformData(t, log, asset, f)
	if out == nil {
		storeEmpty(s, asset, t, log)
		return outcomeFailed
	}

	if meta.Category == registry.CategoryReporter {
		if dash, ok := t.GetDashboard(out); ok {
			s.StoreReport(asset, dash)
		}
	}
	if meta.Category == registry.CategoryEventMarker {
		if marker, ok := t.GetEventMarkers(out); ok {
			s.StoreEventMarker(asset, marker)
		}
	}

	if err := s.StoreTransformOutput(asset, t, out); err != nil {
		log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "store output failed", err))
		return outcomeFailed
	}
	return outcomeProcessed
}
