package kernel

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

// matchesTicker implements the shared "ticker" option match spec §4.4.3/
// §4.4.4 use: case-insensitive equality, empty ticker means wildcard (every
// asset matches).
func matchesTicker(t transform.Base, asset string) bool {
	ticker := strings.ToUpper(optionString(t, "ticker"))
	if ticker == "" {
		return true
	}
	return strings.ToUpper(asset) == ticker
}

// RunAssetRefPassthrough implements spec §4.4.3: for each asset whose id
// matches the configured ticker, the sole input is passed through
// unchanged under the declared output name; non-matching assets get no
// output at all (not even a null one), so ValidateInputsAvailable skips
// their downstream consumers.
func RunAssetRefPassthrough(t transform.Base, s *storage.Storage, log zerolog.Logger, token *eventstream.CancellationToken) (Result, error) {
	outputs := t.OutputMetadata()
	var outName string
	if len(outputs) > 0 {
		outName = outputs[0].Name
	}
	inputIDs := t.InputIDs()
	if len(inputIDs) == 0 {
		return Result{}, nil
	}
	soleInput := inputIDs[0]

	var processed, failed int
	for _, asset := range s.Assets() {
		if token != nil && token.IsCancelled() {
			break
		}
		if !matchesTicker(t, asset) {
			continue
		}
		if !s.ValidateInputsAvailable(asset, t) {
			continue
		}
		f, err := s.GatherInputs(asset, t)
		if err != nil {
			log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "gather inputs failed", err))
			failed++
			continue
		}
		vals, ok := f.Column(soleInput)
		if !ok {
			continue
		}
		single := frame.New(f.Index())
		_ = single.SetColumn(outName, vals)
		if err := s.StoreTransformOutput(asset, t, single); err != nil {
			log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "store output failed", err))
			failed++
			continue
		}
		processed++
	}
	return Result{AssetsProcessed: processed, AssetsFailed: failed}, nil
}

// RunIsAssetRef implements spec §4.4.4: like the passthrough kernel's
// ticker match, but emits a boolean series for every asset (true for
// matches, false otherwise) rather than gating output existence — used as
// a switch for downstream gating.
func RunIsAssetRef(t transform.Base, s *storage.Storage, log zerolog.Logger, token *eventstream.CancellationToken) (Result, error) {
	outputs := t.OutputMetadata()
	var outName string
	if len(outputs) > 0 {
		outName = outputs[0].Name
	}

	var processed, failed int
	for _, asset := range s.Assets() {
		if token != nil && token.IsCancelled() {
			break
		}
		f, err := s.GatherInputs(asset, t)
		if err != nil {
			log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "gather inputs failed", err))
			storeEmpty(s, asset, t, log)
			failed++
			continue
		}
		match := matchesTicker(t, asset)
		vals := make([]value.Value, f.Len())
		for i := range vals {
			vals[i] = value.Boolean(match)
		}
		single := frame.New(f.Index())
		_ = single.SetColumn(outName, vals)
		if err := s.StoreTransformOutput(asset, t, single); err != nil {
			log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "store output failed", err))
			failed++
			continue
		}
		processed++
	}
	return Result{AssetsProcessed: processed, AssetsFailed: failed}, nil
}
