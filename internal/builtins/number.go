package builtins

import (
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const numberTypeID = "number"

// numberTransform is the scalar broadcast example type (spec S4): its
// "value" option is emitted as a constant series, which storage's scalar
// cache collapses to a single shared entry broadcast to every asset's final
// frame.
type numberTransform struct{ transform.BaseTransform }

func (t numberTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	v := optionDecimal(t.Configuration(), "value", 0)
	col := make([]value.Value, f.Len())
	for i := range col {
		col[i] = value.Decimal(v)
	}
	out := frame.New(f.Index())
	_ = out.SetColumn("result", col)
	return out, nil
}

func registerNumber(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       numberTypeID,
		Category: registry.CategoryScalar,
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
		Options: []registry.OptionSpec{
			{Name: "value", Kind: value.OptionKindScalar, Default: value.FromScalar(value.Decimal(0)), Required: true},
		},
	})
	mgr.RegisterFactory(numberTypeID, NewNumber)
}

// NewNumber constructs the number transform's executable instance.
func NewNumber(cfg *transform.Configuration) (transform.Base, error) {
	return &numberTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
