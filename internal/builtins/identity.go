package builtins

import (
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

const identityTypeID = "identity"

// identityTransform copies a configured base-data column through under its
// declared output name. Its "source" option names which base column to
// read; unset defaults to "c" (close).
type identityTransform struct{ transform.BaseTransform }

func (t identityTransform) sourceColumn() string {
	if s := optionString(t.Configuration(), "source"); s != "" {
		return s
	}
	return "c"
}

func (t identityTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	col, ok := f.Column(t.sourceColumn())
	if !ok {
		col = make([]value.Value, f.Len())
		for i := range col {
			col[i] = value.MustNull(value.KindDecimal)
		}
	}
	out := frame.New(f.Index())
	_ = out.SetColumn("result", col)
	return out, nil
}

func registerIdentity(reg *registry.Registry, mgr *transform.Manager) {
	reg.Register(&registry.Metadata{
		ID:       identityTypeID,
		Category: registry.CategoryMath,
		Outputs:  []registry.OutputSpec{{Name: "result", DataType: registry.IODataTypeDecimal}},
		Options: []registry.OptionSpec{
			{Name: "source", Kind: value.OptionKindScalar, Default: value.FromScalar(value.String("c"))},
		},
		ExpandRequiredDataSources: func(resolved map[string]value.OptionValue) []string {
			source := "c"
			if opt, ok := resolved["source"]; ok {
				if scalar, ok := opt.Scalar(); ok {
					if s, ok := scalar.AsString(); ok && s != "" {
						source = s
					}
				}
			}
			return []string{source}
		},
	})
	mgr.RegisterFactory(identityTypeID, NewIdentity)
}

// NewIdentity constructs the identity transform's executable instance.
func NewIdentity(cfg *transform.Configuration) (transform.Base, error) {
	return &identityTransform{BaseTransform: transform.BaseTransform{Config: cfg}}, nil
}
