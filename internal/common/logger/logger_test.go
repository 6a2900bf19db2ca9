package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "test"})

	log.Info("assessment complete", map[string]interface{}{"riskBand": "Low"})
	log.WithError(errors.New("boom")).Error("model failed", nil)
	log.Warn("zero input", map[string]interface{}{"cause": errors.New("income is zero")})

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "assessment complete", entries[0].Message)
		assert.Equal(t, "test", entries[0].ContextMap()["component"])
		assert.Equal(t, "Low", entries[0].ContextMap()["riskBand"])
		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
		assert.Equal(t, "income is zero", entries[2].ContextMap()["cause"])
	}
}

func TestNewWithOutput_FallsBackOnBadSink(t *testing.T) {
	l := NewWithOutput("info", "json", "/nonexistent-dir/for/sure/log.txt")
	assert.NotNil(t, l)
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.With(map[string]interface{}{"a": 1}).Debug("nothing", nil)
}
