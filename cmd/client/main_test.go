package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"gotest.tools/assert"

	"github.com/matst80/wsbridge/internal/proto"
)

type recordedFrames struct{ frames [][]byte }

func (r *recordedFrames) WriteMessage(mt int, p []byte) error {
	r.frames = append(r.frames, append([]byte(nil), p...))
	return nil
}

func TestSessionURL(t *testing.T) {
	for _, tc := range []struct{ base, prefix, want string }{
		{"ws://127.0.0.1:8080", "/ws/", "ws://127.0.0.1:8080/ws/console"},
		{"http://host:8080/", "/ws/", "ws://host:8080/ws/console"},
		{"https://host/app", "pdp10/ws", "wss://host/app/pdp10/ws/console"},
		{"ws://host", "/", "ws://host/console"},
	} {
		cfg := &Config{URL: tc.base, Prefix: tc.prefix, Target: "console"}
		got, err := cfg.sessionURL()
		assert.NilError(t, err)
		assert.Equal(t, got, tc.want)
	}
	_, err := (&Config{URL: "ftp://host", Prefix: "/ws/", Target: "x"}).sessionURL()
	assert.ErrorContains(t, err, "unsupported scheme")
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{"-url", "ws://h:1", "tv11"})
	assert.NilError(t, err)
	assert.Equal(t, cfg.Target, "tv11")
	assert.Equal(t, cfg.URL, "ws://h:1")

	_, err = parseConfig(nil)
	assert.ErrorContains(t, err, "target name is required")

	cfg, err = parseConfig([]string{"-list"})
	assert.NilError(t, err)
	assert.Assert(t, cfg.List)
}

func TestPumpInputStopsAtEscape(t *testing.T) {
	var rec recordedFrames
	err := pumpInput(strings.NewReader("ls\r\x1dnever sent"), &rec)
	assert.NilError(t, err)
	assert.Equal(t, len(rec.frames), 1)
	assert.Equal(t, string(rec.frames[0]), "ls\r")
}

func TestPumpInputEOF(t *testing.T) {
	var rec recordedFrames
	err := pumpInput(strings.NewReader("abc"), &rec)
	assert.Equal(t, err, io.EOF)
	assert.Equal(t, string(bytes.Join(rec.frames, nil)), "abc")
}

func TestPumpOutputAgainstServer(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(websocket.BinaryMessage, []byte("hello "))
		_ = c.WriteMessage(websocket.TextMessage, []byte("skipped"))
		_ = c.WriteMessage(websocket.BinaryMessage, []byte("world"))
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	assert.NilError(t, err)
	defer ws.Close()

	var out bytes.Buffer
	assert.NilError(t, pumpOutput(ws, &out))
	assert.Equal(t, out.String(), "hello world")
}

func TestListTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/api/targets")
		_ = json.NewEncoder(w).Encode([]proto.Target{{Name: "tv11", Mode: "raw", Address: "localhost:11100"}})
	}))
	defer srv.Close()

	var out bytes.Buffer
	assert.NilError(t, listTargets(&out, &Config{StatusURL: srv.URL}))
	assert.Assert(t, strings.Contains(out.String(), "localhost:11100"), out.String())
}
