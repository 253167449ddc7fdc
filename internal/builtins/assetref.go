package builtins

import (
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const (
	assetRefPassthroughTypeID = "asset_ref_passthrough"
	isAssetRefTypeID          = "is_asset_ref"
)

// assetRefPassthroughTransform is the asset-ref passthrough example type
// (spec S5): kernel.RunAssetRefPassthrough never calls TransformData (it
// copies the sole input column directly for matching assets), so this
// exists only to satisfy the Base interface.
type assetRefPassthroughTransform struct{ transform.BaseTransform }

func (assetRefPassthroughTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	col, _ := f.Column("in")
	out := frame.New(f.Index())
	_ = out.SetColumn("result", col)
	return out, nil
}

func registerAssetRefPassthrough(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       assetRefPassthroughTypeID,
		Category: registry.CategoryControlFlow,
		Kernel:   registry.KernelAssetRefPassthrough,
		Inputs:   []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeAny}},
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeAny}},
		Options: []registry.OptionSpec{
			{Name: "ticker", Kind: value.OptionKindScalar, Default: value.FromScalar(value.String(""))},
		},
	})
	mgr.RegisterFactory(assetRefPassthroughTypeID, NewAssetRefPassthrough)
}

// NewAssetRefPassthrough constructs the asset_ref_passthrough transform's
// executable instance.
func NewAssetRefPassthrough(cfg *transform.Configuration) (transform.Base, error) {
	return &assetRefPassthroughTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}

// isAssetRefTransform is the is-asset-ref example type: like the
// passthrough kernel's ticker match, but kernel.RunIsAssetRef emits a
// boolean series for every asset rather than gating output existence, so
// this too exists only to satisfy the Base interface.
type isAssetRefTransform struct{ transform.BaseTransform }

func (isAssetRefTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	col := make([]value.Value, f.Len())
	for i := range col {
		col[i] = value.Boolean(false)
	}
	out := frame.New(f.Index())
	_ = out.SetColumn("result", col)
	return out, nil
}

func registerIsAssetRef(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       isAssetRefTypeID,
		Category: registry.CategoryControlFlow,
		Kernel:   registry.KernelIsAssetRef,
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeBoolean}},
		Options: []registry.OptionSpec{
			{Name: "ticker", Kind: value.OptionKindScalar, Default: value.FromScalar(value.String(""))},
		},
	})
	mgr.RegisterFactory(isAssetRefTypeID, NewIsAssetRef)
}

// NewIsAssetRef constructs the is_asset_ref transform's executable instance.
func NewIsAssetRef(cfg *transform.Configuration) (transform.Base, error) {
	return &isAssetRefTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
