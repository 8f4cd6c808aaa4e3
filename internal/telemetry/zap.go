package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds a zap-backed Logger at the given LOG_LEVEL string
// ("debug", "info", "warn", "error"; unrecognized values fall back to info).
// It returns the underlying *zap.Logger too so callers can Sync it on
// shutdown.
func NewZapLogger(levelName string) (*zap.Logger, Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	sugar := logger.Sugar()
	return logger, LoggerFunc(func(format string, args ...any) {
		sugar.Infof(format, args...)
	}), nil
}
