package target

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestParseTelnet(t *testing.T) {
	d, err := Parse("x:telnet:localhost:23")
	assert.NilError(t, err)
	assert.Equal(t, d.Name, "x")
	assert.Equal(t, d.Mode, ModeTelnet)
	assert.Equal(t, d.Address, "localhost:23")
}

func TestParseModeCaseInsensitive(t *testing.T) {
	for _, spec := range []string{"tv11:RAW:h:11100", "tv11:Raw:h:11100", "tv11:raw:h:11100"} {
		d, err := Parse(spec)
		assert.NilError(t, err, spec)
		assert.Equal(t, d.Mode, ModeRaw, spec)
	}
}

func TestParseKeepsExtraColonsInPort(t *testing.T) {
	d, err := Parse("v6:raw:[::1]:23")
	assert.NilError(t, err)
	// The last field keeps the remaining colons, so the joined address survives.
	assert.Equal(t, d.Address, "[::1]:23")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		spec   string
		reason string
	}{
		{"unknown mode", "x:bogus:h:1", ReasonUnknownMode},
		{"too few fields", "x:telnet:h", ReasonMalformed},
		{"empty", "", ReasonMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.spec)
			var pe *ParseError
			assert.Assert(t, errors.As(err, &pe))
			assert.Equal(t, pe.Reason, tt.reason)
		})
	}
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Get("missing")
	assert.Assert(t, !ok)
	assert.Assert(t, reg.IsEmpty())

	first := &Descriptor{Name: "console", Mode: ModeTelnet, Address: "a:1"}
	second := &Descriptor{Name: "console", Mode: ModeRaw, Address: "b:2"}
	assert.Assert(t, !reg.Add(first))
	assert.Assert(t, reg.Add(second))

	got, ok := reg.Get("console")
	assert.Assert(t, ok)
	assert.Equal(t, got, second)
	assert.Equal(t, reg.Len(), 1)

	_, ok = reg.Get("Console")
	assert.Assert(t, !ok, "lookup must be exact")
}

func TestParseAll(t *testing.T) {
	reg, dups, err := ParseAll([]string{"b:raw:h:2", "a:telnet:h:1", "b:telnet:h:3"})
	assert.NilError(t, err)
	assert.DeepEqual(t, dups, []string{"b"})

	list := reg.List()
	assert.Equal(t, len(list), 2)
	assert.Equal(t, list[0].Name, "a")
	assert.Equal(t, list[1].Address, "h:3")

	_, _, err = ParseAll([]string{"a:raw:h:1", "broken"})
	assert.ErrorContains(t, err, ReasonMalformed)
}
