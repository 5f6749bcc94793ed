package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewJSONLogger writes one JSON object per line to stdout, tagged with service.
func NewJSONLogger(service, level string) *zap.Logger {
	return newLogger(service, level, zapcore.NewJSONEncoder(encoderConfig()), os.Stdout)
}

// NewConsoleLogger writes human-readable lines to stderr, keeping stdout
// free for command output and the MCP stdio transport.
func NewConsoleLogger(service, level string) *zap.Logger {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return newLogger(service, level, zapcore.NewConsoleEncoder(cfg), os.Stderr)
}

func newLogger(service, level string, enc zapcore.Encoder, w io.Writer) *zap.Logger {
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), parseLevel(level))
	return zap.New(core).With(zap.String("service", service))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	return cfg
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
