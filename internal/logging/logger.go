package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewWithWriter returns a logr logger backed by zap, writing console output to w.
func NewWithWriter(level string, w io.Writer) (logr.Logger, error) {
	zapLevel, development, err := parseLevel(level)
	if err != nil {
		return logr.Logger{}, err
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	if !development {
		encCfg.CallerKey = ""
		encCfg.StacktraceKey = ""
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapLevel),
	)
	opts := []zap.Option{}
	if development {
		opts = append(opts, zap.AddCaller(), zap.Development())
	}
	return zapr.NewLogger(zap.New(core, opts...)), nil
}

// LevelFromVerbosity maps a repeated -v count onto a level name.
// Zero keeps the provided fallback.
func LevelFromVerbosity(count int, fallback string) string {
	switch {
	case count <= 0:
		return fallback
	case count == 1:
		return "info"
	default:
		return "debug"
	}
}

func parseLevel(level string) (zapcore.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, true, nil
	case "info":
		return zapcore.InfoLevel, false, nil
	case "warn", "warning", "":
		return zapcore.WarnLevel, false, nil
	case "error":
		return zapcore.ErrorLevel, false, nil
	default:
		return zapcore.InfoLevel, false, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
}

// Warn logs at zap's warn level, which logr has no verb for. Sinks that are
// not zap-backed fall back to Info.
func Warn(log logr.Logger, msg string, keysAndValues ...any) {
	sink := log.GetSink()
	if u, ok := sink.(zapr.Underlier); ok {
		fields := make([]zap.Field, 0, len(keysAndValues)/2)
		for i := 0; i+1 < len(keysAndValues); i += 2 {
			key, ok := keysAndValues[i].(string)
			if !ok {
				key = fmt.Sprint(keysAndValues[i])
			}
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		}
		u.GetUnderlying().Warn(msg, fields...)
		return
	}
	log.Info(msg, keysAndValues...)
}
