package nexplock

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNopLoggerDiscardsWarnings(t *testing.T) {
	l := NewNopLogger()
	require.NotPanics(t, func() { l.Warn("anything", zap.String("k", "v")) })
}

func TestLoggerOrNopDefaultsOnNil(t *testing.T) {
	l := loggerOrNop(nil)
	require.NotNil(t, l)
	require.NotPanics(t, func() { l.Warn("anything") })
}

func TestZapLoggerForwardsToUnderlyingLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	zl := zap.New(core)

	sink := NewZapLogger(zl)
	sink.Warn("ioprio_set failed", zap.String("path", "/tmp/x"))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "ioprio_set failed", entries[0].Message)
}

func TestNewZapLoggerNilFallsBackToNop(t *testing.T) {
	l := NewZapLogger(nil)
	require.NotPanics(t, func() { l.Warn("x") })
}
