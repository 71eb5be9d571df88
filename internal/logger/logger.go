package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// current is the global sugared zap logger. It is swapped atomically so
// tests can redirect output while background goroutines keep logging.
var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

func get() *zap.SugaredLogger {
	return current.Load()
}

// Init initializes the global logger with the configured level from LOG_LEVEL environment variable
// Default level is INFO
func Init() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(logLevelStr))
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewExample()
	}

	current.Store(base.Sugar())
	zap.ReplaceGlobals(base)

	get().Infow("Logger initialized", "level", logLevelStr)
}

type testingT interface {
	zaptest.TestingT
	Cleanup(func())
}

// testSink drops entries once the test has started its cleanup, so
// goroutines that outlive the test never write to a finished test log
type testSink struct {
	testingT
	done atomic.Bool
}

func (s *testSink) Logf(format string, args ...any) {
	if !s.done.Load() {
		s.testingT.Logf(format, args...)
	}
}

// SetForTest routes log output through the test's own log until the test ends
func SetForTest(t testingT) {
	sink := &testSink{testingT: t}
	prev := current.Swap(zaptest.NewLogger(sink, zaptest.Level(zapcore.DebugLevel)).Sugar())
	t.Cleanup(func() {
		sink.done.Store(true)
		current.Store(prev)
	})
}

// Sync flushes any buffered log entries
func Sync() {
	_ = get().Sync()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
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

// Debug logs a debug message
func Debug(msg string, args ...any) {
	get().Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	get().Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	get().Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	get().Errorw(msg, args...)
}
