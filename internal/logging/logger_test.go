package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", "json", &buf)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Named("pipeline").Info("stage done", zap.String("stage", "load"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "stage done", entry["msg"])
	assert.Equal(t, "load", entry["stage"])
	assert.Equal(t, "pipeline", entry["logger"])
	assert.Contains(t, entry, "ts")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("", "console", &buf)
	require.NoError(t, err)
	assert.False(t, l.Enabled(zapcore.InfoLevel))
	l.Warn("careful")
	assert.Contains(t, buf.String(), "careful")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("loud", "json", &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"":       zapcore.WarnLevel,
		"DEBUG":  zapcore.DebugLevel,
		" info ": zapcore.InfoLevel,
		"error":  zapcore.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestSyncIgnoresTerminalErrors(t *testing.T) {
	assert.True(t, isStdoutSyncError(syscall.EINVAL))
	assert.True(t, isStdoutSyncError(syscall.ENOTTY))
	assert.False(t, isStdoutSyncError(syscall.EIO))
	assert.NoError(t, Nop().Sync())
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	tl.With(zap.Int("rows", 3)).Info("loaded dataset")
	tl.AssertLogged(t, zapcore.InfoLevel, "loaded")
	assert.Equal(t, 1, tl.FilterMessage("dataset").Len())
	assert.Equal(t, int64(3), tl.All()[0].ContextMap()["rows"])
}
