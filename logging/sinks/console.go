package sinks

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"arenasrv/logging"
)

// ConsoleSink renders events through a zap core writing newline-delimited
// JSON to w. zap owns formatting and level gating; this sink only maps the
// Event shape onto zap fields.
type ConsoleSink struct {
	logger *zap.Logger
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &ConsoleSink{logger: zap.New(core)}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	fields := []zap.Field{
		zap.Uint64("tick", event.Tick),
		zap.String("actor", formatEntity(event.Actor)),
		zap.String("category", event.Category),
	}
	if len(event.Targets) > 0 {
		targets := make([]string, 0, len(event.Targets))
		for _, target := range event.Targets {
			targets = append(targets, formatEntity(target))
		}
		fields = append(fields, zap.Strings("targets", targets))
	}
	if event.TraceID != "" {
		fields = append(fields, zap.String("traceId", event.TraceID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	for k, v := range event.Extra {
		fields = append(fields, zap.Any(k, v))
	}

	switch event.Severity {
	case logging.SeverityDebug:
		s.logger.Debug(string(event.Type), fields...)
	case logging.SeverityWarn:
		s.logger.Warn(string(event.Type), fields...)
	case logging.SeverityError:
		s.logger.Error(string(event.Type), fields...)
	default:
		s.logger.Info(string(event.Type), fields...)
	}
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	if s.logger == nil {
		return nil
	}
	return s.logger.Sync()
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return string(ref.Kind) + ":" + ref.ID
}
