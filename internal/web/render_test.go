package web

import (
	"bytes"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/matst80/wsbridge/internal/proto"
)

func TestRenderDashboard(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, "dashboard", map[string]any{
		"Active":   1,
		"Total":    int64(3),
		"Targets":  []proto.Target{{Name: "console", Mode: "telnet", Address: "localhost:1025"}},
		"Sessions": []proto.Session{{ID: "x", Target: "console", Mode: "telnet", Peer: "10.0.0.1:5000", Started: time.Now()}},
	})
	assert.NilError(t, err)
	out := buf.String()
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte("localhost:1025")), out)
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte("10.0.0.1:5000")), out)
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte("1 active sessions")), out)
}

func TestRenderUnknownTemplate(t *testing.T) {
	var buf bytes.Buffer
	assert.Assert(t, Render(&buf, "missing", nil) != nil)
}
