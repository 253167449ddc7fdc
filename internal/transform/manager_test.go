package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/timeframe"
)

func smaMeta() *registry.Metadata {
	return &registry.Metadata{
		ID:       "sma",
		Category: registry.CategoryTrend,
		Inputs:   []registry.InputSpec{{Name: "series", DataType: registry.IODataTypeDecimal}},
		Outputs:  []registry.OutputSpec{{Name: "value", DataType: registry.IODataTypeDecimal}},
	}
}

func newFakeTransform(cfg *Configuration) (Base, error) {
	return &stubBase{BaseTransform: BaseTransform{Config: cfg}}, nil
}

func TestManagerBuildTransformsOrdersByDependency(t *testing.T) {
	m := NewManager()
	m.RegisterFactory("sma", newFakeTransform)

	meta := smaMeta()
	downstream := &Configuration{
		Metadata: meta,
		ID:       "b",
		Inputs: map[string][]InputValue{
			"series": {FromNodeRef("a", "value")},
		},
		Timeframe: timeframe.Minute1,
	}
	upstream := &Configuration{
		Metadata:  meta,
		ID:        "a",
		Inputs:    map[string][]InputValue{"series": {Empty()}},
		Timeframe: timeframe.Minute1,
	}

	// Insert downstream first to prove the manager reorders, not just echoes
	// insertion order.
	m.Insert(downstream)
	m.Insert(upstream)

	transforms, err := m.BuildTransforms()
	require.NoError(t, err)
	require.Len(t, transforms, 2)
	assert.Equal(t, "a", transforms[0].ID())
	assert.Equal(t, "b", transforms[1].ID())
}

func TestManagerInsertIsIdempotent(t *testing.T) {
	m := NewManager()
	cfg := &Configuration{Metadata: smaMeta(), ID: "a", Timeframe: timeframe.Minute1}

	first := m.Insert(cfg)
	second := m.Insert(&Configuration{Metadata: smaMeta(), ID: "a", Timeframe: timeframe.Minute1})

	assert.Same(t, first, second)
	assert.Len(t, m.Configurations(), 1)
}

func TestManagerBuildTransformsDetectsCycle(t *testing.T) {
	m := NewManager()
	m.RegisterFactory("sma", newFakeTransform)
	meta := smaMeta()

	a := &Configuration{
		Metadata:  meta,
		ID:        "a",
		Inputs:    map[string][]InputValue{"series": {FromNodeRef("b", "value")}},
		Timeframe: timeframe.Minute1,
	}
	b := &Configuration{
		Metadata:  meta,
		ID:        "b",
		Inputs:    map[string][]InputValue{"series": {FromNodeRef("a", "value")}},
		Timeframe: timeframe.Minute1,
	}
	m.Insert(a)
	m.Insert(b)

	_, err := m.BuildTransforms()
	require.Error(t, err)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.NodeIDs)
}

func TestManagerBuildTransformsUnknownFactory(t *testing.T) {
	m := NewManager()
	m.Insert(&Configuration{Metadata: smaMeta(), ID: "a", Timeframe: timeframe.Minute1})

	_, err := m.BuildTransforms()
	require.Error(t, err)
	var unknownErr *registry.UnknownTransformError
	require.ErrorAs(t, err, &unknownErr)
}

// stubBase is a minimal Base used only to exercise Manager ordering; real
// transforms live in internal/builtins.
type stubBase struct {
	BaseTransform
}

func (s *stubBase) TransformData(f *frame.Frame) (*frame.Frame, error) { return f, nil }
