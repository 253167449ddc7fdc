package registry

import (
	"errors"
	"testing"

	"github.com/epochflow/engine/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetaDataUnknown(t *testing.T) {
	r := New()
	_, err := r.GetMetaData("sma")
	require.Error(t, err)
	var unknown *UnknownTransformError
	assert.True(t, errors.As(err, &unknown))
}

func TestRegisterAndGetMetaData(t *testing.T) {
	r := New()
	meta := &Metadata{
		ID:       "sma",
		Category: CategoryTrend,
		Outputs:  []OutputSpec{{Name: "out", DataType: IODataTypeDecimal}},
	}
	r.Register(meta)

	got, err := r.GetMetaData("sma")
	require.NoError(t, err)
	assert.Equal(t, CategoryTrend, got.Category)
}

func TestOutputColumnID(t *testing.T) {
	assert.Equal(t, "sma_20#out", OutputColumnID("sma_20", "out"))
}

func TestGetRequiredDataSourcesDefault(t *testing.T) {
	meta := &Metadata{RequiredDataSources: []string{"BS:cash"}}
	assert.Equal(t, []string{"BS:cash"}, meta.GetRequiredDataSources(nil))
}

func TestGetRequiredDataSourcesExpansion(t *testing.T) {
	meta := &Metadata{
		ExpandRequiredDataSources: func(resolved map[string]value.OptionValue) []string {
			return []string{"expanded"}
		},
	}
	assert.Equal(t, []string{"expanded"}, meta.GetRequiredDataSources(nil))
}
