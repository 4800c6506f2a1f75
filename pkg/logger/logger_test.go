package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	appConfig "github.com/festy23/reviewdesk/internal/config"
)

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "stdout")

	logger, err := New()
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     appConfig.LoggerConfig
		enabled zapcore.Level
	}{
		{
			name:    "production json",
			cfg:     appConfig.LoggerConfig{Level: "info", Format: "json", Output: "stdout"},
			enabled: zapcore.InfoLevel,
		},
		{
			name:    "development console",
			cfg:     appConfig.LoggerConfig{Level: "debug", Format: "console", Output: "stderr"},
			enabled: zapcore.DebugLevel,
		},
		{
			name:    "invalid level falls back to info",
			cfg:     appConfig.LoggerConfig{Level: "loud", Format: "json"},
			enabled: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewWithConfig(tt.cfg)
			require.NoError(t, err)
			assert.True(t, logger.Desugar().Core().Enabled(tt.enabled))
		})
	}
}

func TestNewWithConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := NewWithConfig(appConfig.LoggerConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Infow("review created", "review_id", "r-1")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "review created")
	assert.Contains(t, string(data), `"service":"reviewdesk"`)
}
