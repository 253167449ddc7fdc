package builtins

import (
	"github.com/markcheno/go-talib"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const emaTypeID = "ema"

// emaTransform computes an exponential moving average over its "in" input,
// grounded on the teacher's formulas.CalculateEMA (trader-go/pkg/formulas/
// ema.go).
type emaTransform struct{ transform.BaseTransform }

func (t emaTransform) period() int {
	return optionInt(t.Configuration(), "period", 20)
}

func (t emaTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	period := t.period()
	col, _ := f.Column("in")
	ema := talib.Ema(toFloats(col), period)

	out := frame.New(f.Index())
	_ = out.SetColumn("result", decimalsWithWarmup(ema, period-1))
	return out, nil
}

func registerEMA(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       emaTypeID,
		Category: registry.CategoryTrend,
		PlotKind: registry.PlotKindLine,
		Inputs:   []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
		Options: []registry.OptionSpec{
			{Name: "period", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Integer(20)), HasBounds: true, Min: 2, Max: 1000},
		},
	})
	mgr.RegisterFactory(emaTypeID, NewEMA)
}

// NewEMA constructs the ema transform's executable instance.
func NewEMA(cfg *transform.Configuration) (transform.Base, error) {
	return &emaTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
