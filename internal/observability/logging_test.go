package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG", Service: "support-system"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "error"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNewLoggerEncodings(t *testing.T) {
	for _, enc := range []string{"console", "json", "xml", ""} {
		logger, err := NewLogger(config.LoggerConfig{Level: "info", Encoding: enc, Development: enc == "console"})
		require.NoError(t, err, enc)
		assert.NotNil(t, logger)
	}
}
