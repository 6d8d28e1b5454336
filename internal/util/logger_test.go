package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resetLogger(t *testing.T) {
	prev := logger
	t.Cleanup(func() {
		logger = prev
		zap.ReplaceGlobals(GetLogger())
	})
}

func TestGetLoggerBeforeInit(t *testing.T) {
	resetLogger(t)
	logger = nil

	assert.NotNil(t, GetLogger())
	assert.False(t, GetLogger().Core().Enabled(zap.ErrorLevel))
}

func TestInitLoggerLevels(t *testing.T) {
	resetLogger(t)

	require.NoError(t, InitLogger("production", ""))
	assert.False(t, GetLogger().Core().Enabled(zap.DebugLevel))
	assert.True(t, GetLogger().Core().Enabled(zap.InfoLevel))

	require.NoError(t, InitLogger("development", ""))
	assert.True(t, GetLogger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger("development", "warn"))
	assert.False(t, GetLogger().Core().Enabled(zap.InfoLevel))
	assert.True(t, GetLogger().Core().Enabled(zap.WarnLevel))
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	resetLogger(t)

	err := InitLogger("production", "loud")
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}
