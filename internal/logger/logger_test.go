package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSetForTestRestoresPreviousLogger(t *testing.T) {
	before := get()

	t.Run("inner", func(t *testing.T) {
		SetForTest(t)
		assert.NotSame(t, before, get())
		Info("routed to the test log", "key", "value")
	})

	assert.Same(t, before, get())
}

func TestLogAfterCleanupIsDropped(t *testing.T) {
	var sink *testSink
	t.Run("inner", func(t *testing.T) {
		SetForTest(t)
		sink = &testSink{testingT: t}
	})
	sink.done.Store(true)

	assert.NotPanics(t, func() { sink.Logf("late %s", "entry") })
}
