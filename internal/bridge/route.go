package bridge

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/matst80/wsbridge/internal/target"
)

// DefaultPrefix is the path prefix front ends put before the target name.
const DefaultPrefix = "/ws/"

// TargetName extracts the target name from a request path of the form
// <prefix><name>. The prefix must match exactly.
func TargetName(path, prefix string) (string, error) {
	name, ok := strings.CutPrefix(path, prefix)
	if !ok {
		return "", errors.Wrapf(ErrInvalidPath, "%q, expected %s{target}", path, prefix)
	}
	return name, nil
}

// Resolve maps a request path to its target descriptor.
func Resolve(reg *target.Registry, path, prefix string) (*target.Descriptor, error) {
	name, err := TargetName(path, prefix)
	if err != nil {
		return nil, &Error{Kind: KindRouting, Op: "route", Err: err}
	}
	d, ok := reg.Get(name)
	if !ok {
		return nil, &Error{Kind: KindRouting, Op: "lookup", Target: name, Err: errors.Wrapf(ErrUnknownTarget, "%q", name)}
	}
	return d, nil
}
