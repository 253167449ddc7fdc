package engineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochflow/engine/internal/timeframe"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENGINE_DATA_DIR", "LOG_LEVEL", "ENGINE_EVENTBRIDGE_PORT",
		"DEV_MODE", "ENGINE_CRON_SCHEDULE", "ENGINE_ASSETS", "ENGINE_TIMEFRAMES",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "state"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8090, cfg.EventBridgePort)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "@every 1h", cfg.CronSchedule)
	assert.Equal(t, []timeframe.Timeframe{timeframe.Day1}, cfg.Timeframes)
	assert.Empty(t, cfg.Assets)
	assert.True(t, filepath.IsAbs(cfg.DataDir))

	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("ENGINE_EVENTBRIDGE_PORT", "9099")
	os.Setenv("DEV_MODE", "true")
	os.Setenv("ENGINE_ASSETS", "AAPL, MSFT ,GOOG")
	os.Setenv("ENGINE_TIMEFRAMES", "1Min,1H")
	defer clearEnv(t)

	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "state"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9099, cfg.EventBridgePort)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Assets)
	assert.Equal(t, []timeframe.Timeframe{timeframe.Minute1, timeframe.Hour1}, cfg.Timeframes)
}

func TestLoadRejectsInvalidTimeframe(t *testing.T) {
	clearEnv(t)
	os.Setenv("ENGINE_TIMEFRAMES", "not-a-timeframe")
	defer clearEnv(t)

	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "state"))
	assert.Error(t, err)
}

func TestValidateRejectsEmptyTimeframes(t *testing.T) {
	cfg := &Config{EventBridgePort: 8090}
	assert.Error(t, cfg.Validate())
}
