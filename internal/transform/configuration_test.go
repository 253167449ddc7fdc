package transform

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/timeframe"
)

func TestInstantiateMintsIDWhenCallerOmitsOne(t *testing.T) {
	reg := registry.New()
	reg.Register(smaMeta())

	cfg, err := Instantiate(reg, "sma", "", nil,
		map[string][]InputValue{"series": {FromNodeRef("a", "value")}},
		timeframe.Minute1, nil)
	require.NoError(t, err)

	require.NotEmpty(t, cfg.ID)
	_, err = uuid.Parse(cfg.ID)
	assert.NoError(t, err, "minted id should be a valid uuid")
}

func TestInstantiateKeepsCallerSuppliedID(t *testing.T) {
	reg := registry.New()
	reg.Register(smaMeta())

	cfg, err := Instantiate(reg, "sma", "my_sma", nil,
		map[string][]InputValue{"series": {FromNodeRef("a", "value")}},
		timeframe.Minute1, nil)
	require.NoError(t, err)
	assert.Equal(t, "my_sma", cfg.ID)
}
