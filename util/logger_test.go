package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3) // debug level
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Error("e")
	l.Warn("w")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5, buf.String())

	wantPrefixes := []string{"[ERR] e", "[WRN] w", "[INF] i", "[VRB] v", "[DBG] d"}
	for i, prefix := range wantPrefixes {
		assert.True(t, strings.HasPrefix(lines[i], prefix), "line %d %q missing prefix %q", i, lines[i], prefix)
	}
}

func TestLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(0)
	l.SetOutput(&buf)

	l.Info("should not appear")
	l.Verbose("should not appear")
	l.Debug("should not appear")
	l.Error("always appears")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1, buf.String())
}

func TestLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(true)

	l.Info("test")

	// Timestamp format is "HH:MM:SS.mmm"
	out := buf.String()
	assert.Regexp(t, `^\d\d:\d\d:\d\d\.\d{3} \[INF\] test`, out)
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)

	l.With(zap.String("session", "abc")).Info("accepted %s", "127.0.0.1:4000")

	assert.Contains(t, buf.String(), "[INF] accepted 127.0.0.1:4000")
	assert.Contains(t, buf.String(), `"session": "abc"`)
}

func TestLogger_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	l := NewLogger(1)
	require.NoError(t, l.OpenFile(path))

	l.Warn("to file")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[WRN] to file")
}

func TestLogger_Nil(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Error("x")
		l.Info("x")
		l.Debug("x")
		_ = l.With(zap.Int("n", 1))
		_ = l.Sync()
	})
	assert.Equal(t, LogQuiet, l.Level())
}

func TestBufPool_RoundTrip(t *testing.T) {
	buf := GetBuf()
	require.NotNil(t, buf)
	assert.Len(t, *buf, DefaultBufSize)

	(*buf)[0] = 0xFF
	PutBuf(buf)

	buf2 := GetBuf()
	require.NotNil(t, buf2)
	PutBuf(buf2)
}

func TestPutBuf_Nil(t *testing.T) {
	assert.NotPanics(t, func() { PutBuf(nil) })
}
