// Package logger owns the process-wide zap logger. Packages log through the
// package-level helpers; fx consumers can take the *zap.Logger directly.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brizzai/auto-eda/internal/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	formatConsole = "console"
	formatJSON    = "json"

	consoleTimeLayout = "2006-01-02 15:04:05.000"
)

var globalLogger = zap.NewNop()

func encoderFor(cfg *config.LoggingConfig) (zapcore.Encoder, error) {
	switch cfg.Format {
	case formatJSON:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		return zapcore.NewJSONEncoder(ec), nil
	case formatConsole, "":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayout)
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		ec.EncodeDuration = zapcore.StringDurationEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

// openLogFile opens the log file, truncating it unless appending is enabled
func openLogFile(path string, appendToFile bool) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendToFile {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

// sinks returns the writers the logger tees into. Console output is the
// fallback when every sink is disabled.
func sinks(cfg *config.LoggingConfig) ([]zapcore.WriteSyncer, error) {
	var out []zapcore.WriteSyncer
	if !cfg.DisableConsole {
		out = append(out, zapcore.Lock(os.Stdout))
	}
	if cfg.OutputPath != "" {
		f, err := openLogFile(cfg.OutputPath, cfg.AppendToFile)
		if err != nil {
			return nil, err
		}
		out = append(out, zapcore.Lock(f))
	}
	if len(out) == 0 {
		out = append(out, zapcore.Lock(os.Stdout))
	}
	return out, nil
}

// NewLogger builds a logger from the logging section of the config
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	enc, err := encoderFor(cfg)
	if err != nil {
		return nil, err
	}
	writers, err := sinks(cfg)
	if err != nil {
		return nil, err
	}

	cores := make([]zapcore.Core, 0, len(writers))
	for _, w := range writers {
		cores = append(cores, zapcore.NewCore(enc.Clone(), w, level))
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// InitLogger replaces the global logger with one built from cfg
func InitLogger(cfg *config.LoggingConfig) error {
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// SetLogger replaces the global logger. nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	globalLogger = l
}

func Debug(msg string, fields ...zap.Field) { globalLogger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { globalLogger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { globalLogger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { globalLogger.Error(msg, fields...) }

// Sync flushes buffered entries
func Sync() error {
	return globalLogger.Sync()
}

// FxEventLogger routes fx lifecycle events through the global logger
func FxEventLogger() fxevent.Logger {
	return &fxevent.ZapLogger{Logger: globalLogger.WithOptions(zap.AddCallerSkip(-1))}
}

// component hands fx consumers the global logger without the helper caller
// skip
func component() *zap.Logger {
	return globalLogger.WithOptions(zap.AddCallerSkip(-1))
}

// Module provides *zap.Logger to the fx graph
var Module = fx.Module("logger",
	fx.Provide(component),
)
