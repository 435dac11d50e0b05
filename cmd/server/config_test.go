package main

import (
	"testing"

	"gotest.tools/assert"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Port, 8080)
	assert.Equal(t, cfg.Prefix, "/ws/")
	assert.Equal(t, cfg.MetricsAddr, ":9100")
	assert.Equal(t, len(cfg.Targets), 0)
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-p", "9090",
		"-t", "tv11:raw:localhost:11100",
		"-target", "console:telnet:localhost:1025",
		"-debug",
	})
	assert.NilError(t, err)
	assert.Equal(t, cfg.Port, 9090)
	assert.DeepEqual(t, cfg.Targets, []string{"tv11:raw:localhost:11100", "console:telnet:localhost:1025"})
	assert.Assert(t, cfg.Debug)
}

func TestParseConfigEnvOverlay(t *testing.T) {
	t.Setenv("WSBRIDGE_PORT", "7000")
	t.Setenv("WSBRIDGE_TARGETS", "a:raw:h:1,b:telnet:h:2")

	cfg, err := parseConfig(nil)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Port, 7000)
	assert.DeepEqual(t, cfg.Targets, []string{"a:raw:h:1", "b:telnet:h:2"})

	cfg, err = parseConfig([]string{"-port", "7001", "-t", "c:raw:h:3"})
	assert.NilError(t, err)
	assert.Equal(t, cfg.Port, 7001)
	assert.DeepEqual(t, cfg.Targets, []string{"c:raw:h:3"})
}

func TestParseConfigRejects(t *testing.T) {
	for _, args := range [][]string{
		{"-prefix", "ws"},
		{"-port", "0"},
		{"stray"},
		{"-nope"},
	} {
		_, err := parseConfig(args)
		assert.Assert(t, err != nil, "%v", args)
	}
}
