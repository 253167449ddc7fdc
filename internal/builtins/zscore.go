package builtins

import (
	"gonum.org/v1/gonum/stat"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const zscoreTypeID = "zscore"

// zscoreTransform is a second cross-sectional example type, alongside top_k:
// instead of a 1/0 indicator of rank membership it emits each asset's
// standard score against the row's cross-sectional distribution, following
// trader/pkg/formulas/stats.go's Mean/StdDev helpers but computed over the
// row's assets instead of over time.
type zscoreTransform struct{ transform.BaseTransform }

func (t zscoreTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	assets := f.Columns()
	cols := make(map[string][]value.Value, len(assets))
	for _, a := range assets {
		cols[a], _ = f.Column(a)
	}

	out := frame.New(f.Index())
	results := make(map[string][]value.Value, len(assets))
	for _, a := range assets {
		results[a] = make([]value.Value, f.Len())
	}

	for row := 0; row < f.Len(); row++ {
		present := make([]string, 0, len(assets))
		values := make([]float64, 0, len(assets))
		for _, a := range assets {
			v := cols[a][row]
			if v.IsNull() {
				continue
			}
			fv, ok := v.AsDecimal()
			if !ok {
				continue
			}
			present = append(present, a)
			values = append(values, fv)
		}

		mean := stat.Mean(values, nil)
		stdDev := stat.StdDev(values, nil)

		for _, a := range assets {
			results[a][row] = value.MustNull(value.KindDecimal)
		}
		if stdDev == 0 || isNaN(stdDev) {
			continue
		}
		for i, a := range present {
			results[a][row] = value.Decimal((values[i] - mean) / stdDev)
		}
	}

	for _, a := range assets {
		_ = out.SetColumn(a, results[a])
	}
	return out, nil
}

func registerZScore(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:               zscoreTypeID,
		Category:         registry.CategoryFactor,
		Kernel:           registry.KernelCrossSectional,
		IsCrossSectional: true,
		Inputs:           []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs:          []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
	})
	mgr.RegisterFactory(zscoreTypeID, NewZScore)
}

// NewZScore constructs the zscore transform's executable instance.
func NewZScore(cfg *transform.Configuration) (transform.Base, error) {
	return &zscoreTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
