package builtins

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const cvarTypeID = "cvar"

// cvarTransform rolls Conditional Value at Risk over a trailing window of
// percentage returns, following trader/pkg/formulas/cvar.go's
// CalculateCVaR (sort returns, take the worst tailProbability fraction,
// average it) but using gonum's stat.Quantile to locate the tail threshold
// instead of the teacher's manual ceil-based tail count, and stat.Mean to
// average the tail — the gonum-native rendering of the same algorithm.
type cvarTransform struct{ transform.BaseTransform }

func (t cvarTransform) window() int {
	return optionInt(t.Configuration(), "window", 20)
}

func (t cvarTransform) confidence() float64 {
	return optionDecimal(t.Configuration(), "confidence", 0.95)
}

func (t cvarTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	col, ok := f.Column("in")
	if !ok {
		col = make([]value.Value, f.Len())
	}
	prices := toFloats(col)
	window := t.window()
	confidence := t.confidence()

	out := make([]value.Value, f.Len())
	for i := range out {
		out[i] = value.MustNull(value.KindDecimal)
	}

	for i := window; i < len(prices); i++ {
		returns := make([]float64, 0, window)
		for j := i - window + 1; j <= i; j++ {
			if prices[j-1] == 0 {
				continue
			}
			returns = append(returns, (prices[j]-prices[j-1])/prices[j-1])
		}
		if len(returns) == 0 {
			continue
		}

		sorted := make([]float64, len(returns))
		copy(sorted, returns)
		sort.Float64s(sorted)

		threshold := stat.Quantile(1-confidence, stat.Empirical, sorted, nil)
		tail := make([]float64, 0, len(sorted))
		for _, r := range sorted {
			if r <= threshold {
				tail = append(tail, r)
			}
		}
		if len(tail) == 0 {
			tail = sorted[:1]
		}
		out[i] = value.Decimal(stat.Mean(tail, nil))
	}

	result := frame.New(f.Index())
	_ = result.SetColumn("result", out)
	return result, nil
}

func registerCVaR(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       cvarTypeID,
		Category: registry.CategoryVolatility,
		Inputs:   []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
		Options: []registry.OptionSpec{
			{Name: "window", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Integer(20)), HasBounds: true, Min: 2, Max: 2520},
			{Name: "confidence", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Decimal(0.95)), HasBounds: true, Min: 0.5, Max: 0.999},
		},
	})
	mgr.RegisterFactory(cvarTypeID, NewCVaR)
}

// NewCVaR constructs the cvar transform's executable instance.
func NewCVaR(cfg *transform.Configuration) (transform.Base, error) {
	return &cvarTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
