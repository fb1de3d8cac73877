package zapadapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/navikt/syfooversiktsrv-go/zapadapter"
)

func newObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return zap.New(core).Sugar(), logs
}

func Test_Logger_ForwardsLevelsAndFields(t *testing.T) {
	sugar, logs := newObservedLogger()
	logger := zapadapter.NewLogger(sugar)

	logger.Debug("debug msg", "key", "value")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg", "count", 3)

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "debug msg", entries[0].Message)
	assert.Equal(t, "value", entries[0].ContextMap()["key"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.EqualValues(t, 3, entries[3].ContextMap()["count"])
}

func Test_ContextualLogger_ForwardsMessages(t *testing.T) {
	sugar, logs := newObservedLogger()
	logger := zapadapter.NewContextualLogger(sugar)

	ctx := context.Background()

	logger.DebugContext(ctx, "debug msg")
	logger.InfoContext(ctx, "info msg", "key", "value")
	logger.WarnContext(ctx, "warn msg")
	logger.ErrorContext(ctx, "error msg")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "info msg", entries[1].Message)
	assert.Equal(t, "value", entries[1].ContextMap()["key"])
}
