package bridge

import (
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"

	"github.com/matst80/wsbridge/internal/target"
)

func TestTargetName(t *testing.T) {
	name, err := TargetName("/ws/console", DefaultPrefix)
	assert.NilError(t, err)
	assert.Equal(t, name, "console")

	name, err = TargetName("/ws/", DefaultPrefix)
	assert.NilError(t, err)
	assert.Equal(t, name, "")

	_, err = TargetName("/console", DefaultPrefix)
	assert.Assert(t, errors.Is(err, ErrInvalidPath))

	_, err = TargetName("/WS/console", DefaultPrefix)
	assert.Assert(t, errors.Is(err, ErrInvalidPath))

	name, err = TargetName("/pdp10/ws/tv11", "/pdp10/ws/")
	assert.NilError(t, err)
	assert.Equal(t, name, "tv11")
}

func TestResolve(t *testing.T) {
	reg := target.NewRegistry()
	reg.Add(&target.Descriptor{Name: "console", Mode: target.ModeTelnet, Address: "localhost:1025"})

	d, err := Resolve(reg, "/ws/console", DefaultPrefix)
	assert.NilError(t, err)
	assert.Equal(t, d.Address, "localhost:1025")

	_, err = Resolve(reg, "/ws/consol", DefaultPrefix)
	assert.Assert(t, errors.Is(err, ErrUnknownTarget))
	assert.Assert(t, IsKind(err, KindRouting))
	assert.ErrorContains(t, err, "unknown target")

	_, err = Resolve(reg, "/ws/", DefaultPrefix)
	assert.Assert(t, errors.Is(err, ErrUnknownTarget))

	_, err = Resolve(reg, "/api/console", DefaultPrefix)
	assert.Assert(t, errors.Is(err, ErrInvalidPath))
	assert.Assert(t, IsKind(err, KindRouting))
	assert.Assert(t, !IsKind(err, KindTransport))
}
