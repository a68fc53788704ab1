package logger

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. "debug" gives coloured console output,
// anything else structured JSON.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config
	if mode == "debug" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	// stdout belongs to the progress line and reports
	config.OutputPaths = []string{"stderr"}

	return config.Build()
}

// FromConfig reads log.mode from viper, falling back to a no-op logger if
// the configured one cannot be built.
func FromConfig() *zap.Logger {
	log, err := New(viper.GetString("log.mode"))
	if err != nil {
		return zap.NewNop()
	}
	return log
}
