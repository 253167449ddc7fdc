package builtins

import (
	"github.com/markcheno/go-talib"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const bollingerTypeID = "bollinger"

// bollingerTransform computes Bollinger Bands over its "in" input, grounded
// on the teacher's formulas.CalculateBollingerBands (trader/pkg/formulas/
// bollinger.go): middle band is an N-period SMA, upper/lower are the middle
// band offset by a configurable standard-deviation multiplier.
type bollingerTransform struct{ transform.BaseTransform }

func (t bollingerTransform) period() int {
	return optionInt(t.Configuration(), "period", 20)
}

func (t bollingerTransform) stdDev() float64 {
	return optionDecimal(t.Configuration(), "stddev", 2.0)
}

func (t bollingerTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	period := t.period()
	stdDev := t.stdDev()
	col, _ := f.Column("in")
	upper, middle, lower := talib.BBands(toFloats(col), period, stdDev, stdDev, 0)

	out := frame.New(f.Index())
	_ = out.SetColumn("upper", decimalsWithWarmup(upper, period-1))
	_ = out.SetColumn("middle", decimalsWithWarmup(middle, period-1))
	_ = out.SetColumn("lower", decimalsWithWarmup(lower, period-1))
	return out, nil
}

func registerBollinger(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       bollingerTypeID,
		Category: registry.CategoryVolatility,
		PlotKind: registry.PlotKindLine,
		Inputs:   []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs: []registry.OutputSpec{
			{Name: "upper", DataType: registry.IODataTypeDecimal},
			{Name: "middle", DataType: registry.IODataTypeDecimal},
			{Name: "lower", DataType: registry.IODataTypeDecimal},
		},
		Options: []registry.OptionSpec{
			{Name: "period", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Integer(20)), HasBounds: true, Min: 2, Max: 1000},
			{Name: "stddev", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Decimal(2.0)), HasBounds: true, Min: 0.1, Max: 10},
		},
	})
	mgr.RegisterFactory(bollingerTypeID, NewBollinger)
}

// NewBollinger constructs the bollinger transform's executable instance.
func NewBollinger(cfg *transform.Configuration) (transform.Base, error) {
	return &bollingerTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
