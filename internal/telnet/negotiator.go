package telnet

type state uint8

const (
	stateData state = iota
	stateIAC
	stateWill
	stateWont
	stateDo
	stateDont
	stateSB
	stateSBData
	stateSBDataIAC
)

var stateNames = [...]string{
	stateData:      "data",
	stateIAC:       "iac",
	stateWill:      "will",
	stateWont:      "wont",
	stateDo:        "do",
	stateDont:      "dont",
	stateSB:        "sb",
	stateSBData:    "sb-data",
	stateSBDataIAC: "sb-data-iac",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

type action uint8

const (
	actNone   action = iota
	actEmit          // byte goes to clean output
	actWill          // byte is the option of a received WILL
	actWont          // ... WONT
	actDo            // ... DO
	actDont          // ... DONT
)

// step is the transition function of the negotiation parser.
func step(s state, b byte) (state, action) {
	switch s {
	case stateData:
		if b == IAC {
			return stateIAC, actNone
		}
		return stateData, actEmit
	case stateIAC:
		switch b {
		case IAC:
			return stateData, actEmit
		case WILL:
			return stateWill, actNone
		case WONT:
			return stateWont, actNone
		case DO:
			return stateDo, actNone
		case DONT:
			return stateDont, actNone
		case SB:
			return stateSB, actNone
		}
		// SE outside a subnegotiation and unknown commands are swallowed.
		return stateData, actNone
	case stateWill:
		return stateData, actWill
	case stateWont:
		return stateData, actWont
	case stateDo:
		return stateData, actDo
	case stateDont:
		return stateData, actDont
	case stateSB:
		return stateSBData, actNone
	case stateSBData:
		if b == IAC {
			return stateSBDataIAC, actNone
		}
		return stateSBData, actNone
	case stateSBDataIAC:
		if b == SE {
			return stateData, actNone
		}
		return stateSBData, actNone
	}
	return stateData, actNone
}

// Reply is one negotiation answer, kept for logging and metrics.
type Reply struct {
	Verb   byte
	Option byte
}

// Negotiator holds the per-connection parse state. It is not safe for
// concurrent use; one goroutine reading the backend owns it.
type Negotiator struct {
	state    state
	nawsSent bool
	cols     uint16
	rows     uint16

	out     []byte
	reply   []byte
	replies []Reply
}

// NewNegotiator returns a negotiator that reports an 80x24 window.
func NewNegotiator() *Negotiator {
	return &Negotiator{state: stateData, cols: DefaultCols, rows: DefaultRows}
}

// Process feeds chunk through the parser. It returns the bytes meant for the
// front end and the bytes to send back to the backend. Parse state carries
// over between calls, so a command may be split across chunks.
func (n *Negotiator) Process(chunk []byte) (clean, reply []byte) {
	n.out = make([]byte, 0, len(chunk))
	n.reply = nil
	n.replies = n.replies[:0]

	for _, b := range chunk {
		next, act := step(n.state, b)
		n.state = next
		switch act {
		case actEmit:
			n.out = append(n.out, b)
		case actWill:
			n.handleWill(b)
		case actWont:
			n.send(DONT, b)
		case actDo:
			n.handleDo(b)
		case actDont:
			n.send(WONT, b)
		}
	}
	return n.out, n.reply
}

// Replies lists the answers produced by the last Process call.
func (n *Negotiator) Replies() []Reply { return n.replies }

// NAWSSent reports whether the window size has been announced.
func (n *Negotiator) NAWSSent() bool { return n.nawsSent }

func (n *Negotiator) handleWill(opt byte) {
	switch opt {
	case OptEcho, OptSGA, OptBinary:
		n.send(DO, opt)
	case OptNAWS:
		n.send(DO, opt)
		n.sendNAWSOnce()
	default:
		n.send(DONT, opt)
	}
}

func (n *Negotiator) handleDo(opt byte) {
	switch opt {
	case OptNAWS:
		n.send(WILL, opt)
		n.sendNAWSOnce()
	case OptBinary:
		n.send(WILL, opt)
	default:
		n.send(WONT, opt)
	}
}

func (n *Negotiator) send(verb, opt byte) {
	n.reply = append(n.reply, IAC, verb, opt)
	n.replies = append(n.replies, Reply{Verb: verb, Option: opt})
}

func (n *Negotiator) sendNAWSOnce() {
	if n.nawsSent {
		return
	}
	n.reply = append(n.reply, NAWS(n.cols, n.rows)...)
	n.nawsSent = true
}
