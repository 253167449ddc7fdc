package builtins

import (
	"sort"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const topKTypeID = "top_k"

// topKTransform is the cross-sectional example type (spec S3): it receives
// one column per asset (the kernel's GatherInputs-per-asset-then-wide-join
// step) and marks, per row, which assets sit in the top k by value with a
// 1/0 indicator column of their own.
type topKTransform struct{ transform.BaseTransform }

func (t topKTransform) k() int {
	return optionInt(t.Configuration(), "k", 1)
}

func (t topKTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	k := t.k()
	assets := f.Columns()
	cols := make(map[string][]value.Value, len(assets))
	for _, a := range assets {
		cols[a], _ = f.Column(a)
	}

	out := frame.New(f.Index())
	indicators := make(map[string][]value.Value, len(assets))
	for _, a := range assets {
		indicators[a] = make([]value.Value, f.Len())
	}

	for row := 0; row < f.Len(); row++ {
		type scored struct {
			asset string
			val   float64
		}
		ranked := make([]scored, 0, len(assets))
		for _, a := range assets {
			v := cols[a][row]
			if v.IsNull() {
				continue
			}
			fv, ok := v.AsDecimal()
			if !ok {
				continue
			}
			ranked = append(ranked, scored{asset: a, val: fv})
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].val > ranked[j].val })

		top := make(map[string]bool, k)
		for i := 0; i < len(ranked) && i < k; i++ {
			top[ranked[i].asset] = true
		}
		for _, a := range assets {
			if top[a] {
				indicators[a][row] = value.Decimal(1)
			} else {
				indicators[a][row] = value.Decimal(0)
			}
		}
	}

	for _, a := range assets {
		_ = out.SetColumn(a, indicators[a])
	}
	return out, nil
}

func registerTopK(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:               topKTypeID,
		Category:         registry.CategoryFactor,
		Kernel:           registry.KernelCrossSectional,
		IsCrossSectional: true,
		Inputs:           []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs:          []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
		Options: []registry.OptionSpec{
			{Name: "k", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Integer(1)), HasBounds: true, Min: 1, Max: 10000},
		},
	})
	mgr.RegisterFactory(topKTypeID, NewTopK)
}

// NewTopK constructs the top_k transform's executable instance.
func NewTopK(cfg *transform.Configuration) (transform.Base, error) {
	return &topKTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
