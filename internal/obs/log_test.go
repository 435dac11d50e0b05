package obs

import (
	"bytes"
	"encoding/json"
	"testing"

	"gotest.tools/assert"
)

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nopWriter{})

	Info("session.open", Fields{"target": "console"})
	Debug("hidden", nil)

	var line map[string]any
	assert.NilError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, line["msg"], "session.open")
	assert.Equal(t, line["level"], "info")
	assert.Equal(t, line["target"], "console")
	_, ok := line["ts"]
	assert.Assert(t, ok)
}

func TestEnableDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nopWriter{})
	EnableDebug(true)
	defer EnableDebug(false)

	assert.Assert(t, DebugEnabled())
	Debug("telnet.reply", Fields{"verb": "do"})
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte(`"telnet.reply"`)))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
