// Package builtins registers the engine's example transform types against a
// registry.Registry and a transform.Manager: identity/diff for plumbing,
// sma/ema/bollinger as the indicator kernels grounded on the teacher's
// trader/pkg/formulas (backed by github.com/markcheno/go-talib), number as
// the scalar-broadcast type, top_k/zscore as the cross-sectional examples,
// cvar as a rolling risk kernel (backed by gonum.org/v1/gonum/stat), and
// asset_ref_passthrough/is_asset_ref as the two asset-ref kernels. None of
// this is wired automatically — a process entry point calls Register once
// at startup.
package builtins

import (
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
)

// Register adds every builtin transform type's metadata to reg and its
// factory to mgr. Call once per process before compiling any pipeline.
func Register(reg *registry.Registry, mgr *transform.Manager) {
	registerIdentity(reg, mgr)
	registerDiff(reg, mgr)
	registerSMA(reg, mgr)
	registerEMA(reg, mgr)
	registerBollinger(reg, mgr)
	registerNumber(reg, mgr)
	registerTopK(reg, mgr)
	registerZScore(reg, mgr)
	registerCVaR(reg, mgr)
	registerAssetRefPassthrough(reg, mgr)
	registerIsAssetRef(reg, mgr)
}

// optionInt reads an Integer-kind scalar option, falling back to def if the
// option is absent or not an integer.
func optionInt(cfg *transform.Configuration, name string, def int) int {
	opt, ok := cfg.GetOption(name)
	if !ok {
		return def
	}
	scalar, ok := opt.Scalar()
	if !ok {
		return def
	}
	n, ok := scalar.AsInteger()
	if !ok {
		return def
	}
	return int(n)
}

// optionDecimal reads a Decimal-kind scalar option, falling back to def if
// the option is absent or not numeric.
func optionDecimal(cfg *transform.Configuration, name string, def float64) float64 {
	opt, ok := cfg.GetOption(name)
	if !ok {
		return def
	}
	scalar, ok := opt.Scalar()
	if !ok {
		return def
	}
	f, ok := scalar.AsDecimal()
	if !ok {
		return def
	}
	return f
}

// optionString reads a String-kind scalar option, "" if absent or not a
// string.
func optionString(cfg *transform.Configuration, name string) string {
	opt, ok := cfg.GetOption(name)
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
