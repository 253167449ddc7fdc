package builtins

import (
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const diffTypeID = "diff"

// diffTransform computes the first difference of its "in" input: each row
// is the current value minus the previous row's, with the first row null.
type diffTransform struct{ transform.BaseTransform }

func (diffTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	col, _ := f.Column("in")
	out := make([]value.Value, len(col))
	for i := range col {
		if i == 0 {
			out[i] = value.MustNull(value.KindDecimal)
			continue
		}
		cur, okCur := col[i].AsDecimal()
		prev, okPrev := col[i-1].AsDecimal()
		if col[i].IsNull() || col[i-1].IsNull() || !okCur || !okPrev {
			out[i] = value.MustNull(value.KindDecimal)
			continue
		}
		out[i] = value.Decimal(cur - prev)
	}
	result := frame.New(f.Index())
	_ = result.SetColumn("result", out)
	return result, nil
}

func registerDiff(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       diffTypeID,
		Category: registry.CategoryMath,
		Inputs:   []registry.InputSpec{{Name: "in", DataType: registry.IODataTypeDecimal}},
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
	})
	mgr.RegisterFactory(diffTypeID, NewDiff)
}

// NewDiff constructs the diff transform's executable instance.
func NewDiff(cfg *transform.Configuration) (transform.Base, error) {
	return &diffTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
