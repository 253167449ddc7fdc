package kernel

import (
	"github.com/rs/zerolog"

	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/transform"
)

// RunCrossSectional implements spec §4.4.2: gather each asset's sole scalar
// input into a wide frame keyed by asset id, run TransformData once, then
// distribute the result back to per-asset outputs (or broadcast, if the
// result collapsed to the single declared output column).
func RunCrossSectional(t transform.Base, s *storage.Storage, log zerolog.Logger, token *eventstream.CancellationToken) (Result, error) {
	meta := t.Configuration().Metadata
	assets := s.Assets()

	emitEmpty := func() {
		for _, asset := range assets {
			storeEmpty(s, asset, t, log)
		}
	}

	if meta.IntradayOnly && !t.Timeframe().IsIntraday() {
		emitEmpty()
		return Result{}, nil
	}

	inputIDs := t.InputIDs()
	if len(inputIDs) == 0 {
		emitEmpty()
		return Result{}, nil
	}
	soleInput := inputIDs[0]

	var perAsset []*frame.Frame
	var gatherFailed int
	for _, asset := range assets {
		if token != nil && token.IsCancelled() {
			break
		}
		if !s.ValidateInputsAvailable(asset, t) {
			continue
		}
		f, err := s.GatherInputs(asset, t)
		if err != nil {
			log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "gather inputs failed", err))
			gatherFailed++
			continue
		}
		vals, ok := f.Column(soleInput)
		if !ok {
			continue
		}
		single := frame.New(f.Index())
		_ = single.SetColumn(asset, vals)
		perAsset = append(perAsset, single)
	}

	if len(perAsset) == 0 {
		emitEmpty()
		return Result{AssetsFailed: gatherFailed}, nil
	}

	wide := frame.OuterJoinConcat(perAsset...).DropNullRows()
	if wide.Empty() {
		emitEmpty()
		return Result{AssetsFailed: gatherFailed}, nil
	}

	result, err := t.TransformData(wide)
	if err != nil {
		log.Error().Err(err).Str("transform", t.ID()).Msg(formatKernelError(t.ID(), "ALL", "cross-sectional transform failed", err))
		emitEmpty()
		return Result{AssetsFailed: len(assets)}, nil
	}

	if meta.Category == registry.CategoryReporter {
		if dash, ok := t.GetDashboard(result); ok {
			s.StoreReport("ALL", dash)
		}
		return Result{AssetsProcessed: len(perAsset), AssetsFailed: gatherFailed}, nil
	}

	outputs := t.OutputMetadata()
	var outName string
	if len(outputs) > 0 {
		outName = outputs[0].Name
	}

	resultCols := result.Columns()
	if len(resultCols) == 1 && resultCols[0] == outName {
		for _, asset := range assets {
			if err := s.StoreTransformOutput(asset, t, result); err != nil {
				log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "store output failed", err))
			}
		}
		return Result{AssetsProcessed: len(assets), AssetsFailed: gatherFailed}, nil
	}

	var processed, storeFailed int
	for _, asset := range assets {
		vals, ok := result.Column(asset)
		if !ok {
			storeEmpty(s, asset, t, log)
			continue
		}
		single := frame.New(result.Index())
		_ = single.SetColumn(outName, vals)
		if err := s.StoreTransformOutput(asset, t, single); err != nil {
			log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "store output failed", err))
			storeFailed++
			continue
		}
		processed++
	}
	return Result{AssetsProcessed: processed, AssetsFailed: gatherFailed + storeFailed}, nil
}
