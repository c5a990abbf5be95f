package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_New(t *testing.T) {
	var buf bytes.Buffer
	lggr := Config{Level: zapcore.InfoLevel, Output: &buf}.New()

	lggr.Debugw("hidden", "step", "flatten")
	lggr.Infow("flattened", "entities", 12)
	require.NoError(t, lggr.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "flattened")
	assert.Contains(t, out, `"entities": 12`)
	assert.Contains(t, out, "cellomold")
	assert.Equal(t, "cellomold", lggr.Name())
}

func TestConfig_NewDebug(t *testing.T) {
	var buf bytes.Buffer
	lggr := Config{Level: zapcore.DebugLevel, Output: &buf}.New().Named("join")

	lggr.Debugf("chained %d segments", 4)
	require.NoError(t, lggr.Sync())

	assert.Contains(t, buf.String(), "chained 4 segments")
	assert.Equal(t, "cellomold.join", lggr.Name())
}

func TestTestObserved(t *testing.T) {
	lggr, logs := TestObserved(t, zapcore.WarnLevel)
	lggr.Info("not observed")
	lggr.Warnw("leftover segments", "count", 2)

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "leftover segments", entries[0].Message)
	assert.Equal(t, int64(2), entries[0].ContextMap()["count"])
}

func TestNop(t *testing.T) {
	lggr := Nop()
	lggr.Error("dropped")
	assert.NoError(t, lggr.Sync())
	assert.NotNil(t, Test(t))
}
