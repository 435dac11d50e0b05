package target

import (
	"fmt"
	"strings"
)

// Mode selects how backend bytes are relayed to the front end.
type Mode int

const (
	// ModeRaw relays bytes verbatim.
	ModeRaw Mode = iota
	// ModeTelnet strips and answers telnet option negotiation.
	ModeTelnet
)

func (m Mode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeTelnet:
		return "telnet"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts "raw" or "telnet" in any letter case.
func ParseMode(token string) (Mode, bool) {
	switch strings.ToLower(token) {
	case "raw":
		return ModeRaw, true
	case "telnet":
		return ModeTelnet, true
	}
	return 0, false
}

const (
	ReasonMalformed   = "malformed target specification"
	ReasonUnknownMode = "unknown mode token"
)

// ParseError reports an operator target specification that cannot be used.
type ParseError struct {
	Spec   string
	Reason string
	Token  string // offending mode token, if any
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("target %q: %s %q, expected raw or telnet", e.Spec, e.Reason, e.Token)
	}
	return fmt.Sprintf("target %q: %s, expected NAME:MODE:HOST:PORT", e.Spec, e.Reason)
}

// Descriptor is a named backend endpoint. It is never mutated after Parse.
type Descriptor struct {
	Name    string
	Mode    Mode
	Address string
}

// Parse builds a Descriptor from "name:mode:host:port". The port field keeps
// any further colons. Host and port are not resolved here.
func Parse(spec string) (*Descriptor, error) {
	parts := strings.SplitN(spec, ":", 4)
	if len(parts) != 4 {
		return nil, &ParseError{Spec: spec, Reason: ReasonMalformed}
	}
	mode, ok := ParseMode(parts[1])
	if !ok {
		return nil, &ParseError{Spec: spec, Reason: ReasonUnknownMode, Token: parts[1]}
	}
	return &Descriptor{
		Name:    parts[0],
		Mode:    mode,
		Address: parts[2] + ":" + parts[3],
	}, nil
}
