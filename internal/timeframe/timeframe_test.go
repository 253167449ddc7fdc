package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{"1Min", "4H", "1D", "1W"}
	for _, c := range cases {
		tf, err := Parse(c)
		require.NoError(t, err, c)
		assert.Equal(t, c, tf.String())
	}
}

func TestIsIntraday(t *testing.T) {
	assert.True(t, Minute1.IsIntraday())
	assert.True(t, Hour1.IsIntraday())
	assert.False(t, Day1.IsIntraday())
	assert.False(t, Week1.IsIntraday())
}

func TestEqualOnNormalizedString(t *testing.T) {
	a, _ := New(UnitHour, 1, time.Monday)
	b, _ := New(UnitHour, 1, time.Sunday)
	assert.True(t, a.Equal(b))
}

func TestNewRejectsNonPositiveMultiplier(t *testing.T) {
	_, err := New(UnitDay, 0, time.Monday)
	require.Error(t, err)
}
