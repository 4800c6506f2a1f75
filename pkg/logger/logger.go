// Package logger builds the service's zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appConfig "github.com/festy23/reviewdesk/internal/config"
)

// New creates a logger from LOG_* environment variables.
func New() (*zap.SugaredLogger, error) {
	return NewWithConfig(appConfig.LoadLoggerConfigFromEnv())
}

// NewWithConfig creates a logger from cfg. Output may be stdout, stderr or a
// file path, which is opened in append mode.
func NewWithConfig(cfg appConfig.LoggerConfig) (*zap.SugaredLogger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig.Encoding = "json"
		zapConfig.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zapConfig.OutputPaths = []string{output}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	zapConfig.InitialFields = map[string]interface{}{"service": "reviewdesk"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
