package logging

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	quiet, err := New(false, false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))

	verbose, err := New(true, true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestWithRunTagsEveryRecord(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log, id := WithRun(zap.New(core))

	log.Info("hello")

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, id, logs.All()[0].ContextMap()["run_id"])
}

func TestTiming(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	done := Timing(zap.New(core), "convert")
	done()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "starting", entries[0].Message)
	assert.Equal(t, "completed", entries[1].Message)
	assert.Contains(t, entries[1].ContextMap(), "took")
}

func TestTimingDisabledAndNil(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Timing(zap.New(core), "quiet")()
	assert.Zero(t, logs.Len())

	assert.NotPanics(t, func() { Timing(nil, "nil")() })
}
