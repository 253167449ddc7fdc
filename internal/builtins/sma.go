package builtins

import (
	"github.com/markcheno/go-talib"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const smaTypeID = "sma"

// smaTransform computes a trailing simple moving average over its "in"
// input, grounded on the teacher's formulas.CalculateSMA (trader-go/pkg/
// formulas/ema.go) but kept as a full series rather than a single
// last-value read.
type smaTransform struct{ transform.BaseTransform }

func (t smaTransform) period() int {
	return optionInt(t.Configuration(), "period", 20)
}

func (t smaTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	period := t.period()
	col, _ := f.Column("in")
	sma := talib.Sma(toFloats(col), period)

	out := frame.New(f.Index())
	_ = out.SetColumn("result", decimalsWithWarmup(sma, period-1))
	return out, nil
}

func registerSMA(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       smaTypeID,
		Category: registry.CategoryTrend,
		PlotKind: registry.PlotKindLine,
		Inputs:   []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
		Options: []registry.OptionSpec{
			{Name: "period", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Integer(20)), HasBounds: true, Min: 2, Max: 1000},
		},
	})
	mgr.RegisterFactory(smaTypeID, NewSMA)
}

// NewSMA constructs the sma transform's executable instance.
func NewSMA(cfg *transform.Configuration) (transform.Base, error) {
	return &smaTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
