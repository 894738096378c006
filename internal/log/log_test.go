package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevels_FilterBelowMinimum(t *testing.T) {
	buf := captureLogs(t, LevelInfo)

	Debug("dbg", "a", 1)
	Info("inf", "b", 2)
	Warn("wrn", "c", 3)
	Error("boom", errors.New("kaput"), "d", 4)

	out := buf.String()
	assert.NotContains(t, out, `"message":"dbg"`)
	assert.Contains(t, out, `"message":"inf"`)
	assert.Contains(t, out, `"b":2`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"error":"kaput"`)
	assert.Contains(t, out, `"d":4`)
}

func TestDebugEnabled(t *testing.T) {
	buf := captureLogs(t, LevelDebug)

	Debug("dbg", "k", "v")

	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestOddAndNonStringKeysAreDropped(t *testing.T) {
	buf := captureLogs(t, LevelInfo)

	Info("odd", 42, "ignored", "key", "value", "dangling")

	out := buf.String()
	assert.Contains(t, out, `"key":"value"`)
	assert.NotContains(t, out, "dangling")
	assert.NotContains(t, out, "ignored")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
