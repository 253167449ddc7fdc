// Package kernel implements the four execution node kernels spec §4.4
// names (component C6): default per-asset, cross-sectional, asset-ref
// passthrough, and is-asset-ref. Each kernel is a pure function of a
// transform, the storage it reads/writes, and a logger; the orchestrator
// wires one of them into every graph node per the selecting metadata flag.
package kernel

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/transform"
)

// formatKernelError renders a per-asset execution failure in the
// "Asset: {a}, Transform: {id}, Error: {what}" shape spec §7 requires for
// the orchestrator's aggregated PipelineFailed message.
func formatKernelError(transformID, asset, reason string, err error) string {
	return fmt.Sprintf("Asset: %s, Transform: %s, Error: %s: %v", asset, transformID, reason, err)
}

// Result summarizes one node's kernel run for the orchestrator's
// NodeCompleted event (spec §4.5: "with counters").
type Result struct {
	AssetsProcessed int
	AssetsFailed    int
}

// assetOutcome classifies one asset's pass through a kernel, used internally
// to accumulate a Result without every kernel hand-rolling its own counters.
type assetOutcome int

const (
	outcomeSkipped assetOutcome = iota
	outcomeProcessed
	outcomeFailed
)

// Run dispatches to the kernel named by t's metadata. token may be nil (no
// cooperative cancellation).
func Run(t transform.Base, s *storage.Storage, log zerolog.Logger, token *eventstream.CancellationToken) (Result, error) {
	switch t.Configuration().Metadata.Kernel {
	case registry.KernelCrossSectional:
		return RunCrossSectional(t, s, log, token)
	case registry.KernelAssetRefPassthrough:
		return RunAssetRefPassthrough(t, s, log, token)
	case registry.KernelIsAssetRef:
		return RunIsAssetRef(t, s, log, token)
	default:
		return RunDefault(t, s, log, token)
	}
}

// storeEmpty synthesizes a typed all-null output for every declared output
// of t on asset — StoreTransformOutput treats a nil result frame as "every
// declared output missing," which is exactly the null-synthesis path spec
// §4.3/§4.4.1 describe for a skipped or gated asset.
func storeEmpty(s *storage.Storage, asset string, t transform.Base, log zerolog.Logger) {
	if err := s.StoreTransformOutput(asset, t, nil); err != nil {
		log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "failed to store empty output", err))
	}
}

// optionString reads a String-kind scalar option, "" if absent or not a
// string (used by the asset-ref kernels' case-insensitive ticker match).
func optionString(t transform.Base, name string) string {
	opt, ok := t.Configuration().GetOption(name)
	if !ok {
		return ""
	}
	scalar, ok := opt.Scalar()
	if !ok {
		return ""
	}
	s, ok := scalar.AsString()
	if !ok {
		return ""
	}
	return s
}

// withAssetContext scopes the transform's progress emitter to asset for the
// duration of fn, releasing it afterward — the Go rendering of the RAII
// AssetContextGuard the progress-emission contract names (spec §5).
func withAssetContext(t transform.Base, asset string, fn func()) {
	emitter := t.ProgressEmitter()
	if emitter == nil {
		fn()
		return
	}
	guard := emitter.WithAsset(asset)
	defer guard.Release()
	fn()
}

// runTransformData scopes the progress emitter to asset, runs TransformData,
// logs and swallows any error (per spec §4.4.1: "exceptions are logged...
// not re-thrown"), and returns nil on failure so callers fall back to
// empty-output synthesis.
func runTransformData(t transform.Base, log zerolog.Logger, asset string, in *frame.Frame) *frame.Frame {
	var out *frame.Frame
	var err error
	withAssetContext(t, asset, func() {
		out, err = t.TransformData(in)
	})
	if err != nil {
		log.Error().Err(err).Str("transform", t.ID()).Str("asset", asset).Msg(formatKernelError(t.ID(), asset, "transform failed", err))
		return nil
	}
	return out
}

// parallelForAssets runs fn concurrently for every asset in assets
// (fork-join per spec §5's "within a node, per-asset work is further
// parallelized"). Kernels log and swallow per-asset errors rather than
// propagating them — a single asset's failure never aborts its siblings —
// so errgroup is used purely for its WaitGroup-style Go/Wait pairing, not
// for error aggregation. A panic inside fn is not recovered here.
func parallelForAssets(assets []string, fn func(asset string)) {
	var g errgroup.Group
	for _, asset := range assets {
		asset := asset
		g.Go(func() error {
			fn(asset)
			return nil
		})
	}
	_ = g.Wait()
}

