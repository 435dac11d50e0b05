// Package telnet filters telnet option negotiation out of a backend byte
// stream and produces the replies the backend expects.
package telnet

import "strconv"

// Telnet commands.
const (
	IAC  byte = 255 // interpret as command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // subnegotiation begin
	SE   byte = 240 // subnegotiation end
)

// Telnet options.
const (
	OptBinary   byte = 0
	OptEcho     byte = 1
	OptSGA      byte = 3 // suppress go ahead
	OptNAWS     byte = 31
	OptLinemode byte = 34
)

// Window size reported through NAWS.
const (
	DefaultCols uint16 = 80
	DefaultRows uint16 = 24
)

// OptionName returns a short name for opt, or its decimal value.
func OptionName(opt byte) string {
	switch opt {
	case OptBinary:
		return "binary"
	case OptEcho:
		return "echo"
	case OptSGA:
		return "sga"
	case OptNAWS:
		return "naws"
	case OptLinemode:
		return "linemode"
	}
	return strconv.Itoa(int(opt))
}

// VerbName names a negotiation verb.
func VerbName(verb byte) string {
	switch verb {
	case WILL:
		return "will"
	case WONT:
		return "wont"
	case DO:
		return "do"
	case DONT:
		return "dont"
	}
	return strconv.Itoa(int(verb))
}

// NAWS builds the window-size subnegotiation IAC SB NAWS w w h h IAC SE.
func NAWS(cols, rows uint16) []byte {
	return []byte{
		IAC, SB, OptNAWS,
		byte(cols >> 8), byte(cols),
		byte(rows >> 8), byte(rows),
		IAC, SE,
	}
}
