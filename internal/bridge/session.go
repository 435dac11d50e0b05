package bridge

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/matst80/wsbridge/internal/obs"
	"github.com/matst80/wsbridge/internal/target"
	"github.com/matst80/wsbridge/internal/telnet"
)

// readBufferSize bounds one backend read and so one outgoing frame.
const readBufferSize = 64 * 1024

// FrameConn is the message-framed front-end side of a session.
// *websocket.Conn satisfies it.
type FrameConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// controlWriter is implemented by front ends that can send a close frame.
type controlWriter interface {
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

type session struct {
	id      string
	front   FrameConn
	backend net.Conn
	target  *target.Descriptor
	peer    string

	// wmu serialises backend writes: front-end payloads and telnet replies
	// come from different goroutines.
	wmu sync.Mutex

	up, down atomic.Int64
	started  time.Time
}

func (s *session) writeBackend(p []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.backend.Write(p)
	return err
}

// frontToBack relays binary frames verbatim to the backend. A close frame or
// end of stream ends this direction cleanly.
func (s *session) frontToBack() error {
	for {
		mt, p, err := s.front.ReadMessage()
		if err != nil {
			if isCloseFrame(err) || errors.Is(err, io.EOF) {
				return nil
			}
			return transportError("read front", err)
		}
		switch mt {
		case websocket.BinaryMessage:
			if len(p) == 0 {
				continue
			}
			if err := s.writeBackend(p); err != nil {
				return transportError("write backend", err)
			}
			s.up.Add(int64(len(p)))
		case websocket.CloseMessage:
			return nil
		default:
			obs.IgnoredFramesTotal.Inc()
			obs.Debug("frame.ignored", obs.Fields{"session": s.id, "type": mt, "len": len(p)})
		}
	}
}

// backToFront reads the backend in bounded chunks and sends each non-empty
// chunk as one binary frame. With a negotiator, chunks are filtered first and
// its replies go straight back to the backend.
func (s *session) backToFront(neg *telnet.Negotiator) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.backend.Read(buf)
		if n > 0 {
			if ferr := s.forward(neg, buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return transportError("read backend", err)
		}
	}
}

func (s *session) forward(neg *telnet.Negotiator, chunk []byte) error {
	data := chunk
	if neg != nil {
		clean, reply := neg.Process(chunk)
		if len(reply) > 0 {
			if err := s.writeBackend(reply); err != nil {
				return transportError("write telnet reply", err)
			}
			for _, r := range neg.Replies() {
				obs.TelnetRepliesTotal.WithLabelValues(telnet.VerbName(r.Verb)).Inc()
				if obs.DebugEnabled() {
					obs.Debug("telnet.reply", obs.Fields{"session": s.id, "verb": telnet.VerbName(r.Verb), "option": telnet.OptionName(r.Option)})
				}
			}
		}
		data = clean
	}
	if len(data) == 0 {
		return nil
	}
	if err := s.front.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return transportError("send frame", err)
	}
	s.down.Add(int64(len(data)))
	return nil
}

// run races the two directions. The first to return ends the session: both
// streams are closed, which fails whatever the other direction is blocked on,
// and that result is dropped.
func (s *session) run() error {
	var neg *telnet.Negotiator
	if s.target.Mode == target.ModeTelnet {
		neg = telnet.NewNegotiator()
	}

	errc := make(chan error, 2)
	go func() { errc <- s.frontToBack() }()
	go func() { errc <- s.backToFront(neg) }()

	err := <-errc
	s.teardown(err)
	<-errc
	return withSession(err, s.target.Name, s.peer)
}

func (s *session) teardown(cause error) {
	if cw, ok := s.front.(controlWriter); ok {
		code := websocket.CloseNormalClosure
		if cause != nil {
			code = websocket.CloseInternalServerErr
		}
		_ = cw.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
	}
	_ = s.front.Close()
	_ = s.backend.Close()
}

func (s *session) logClose(err error) {
	elapsed := time.Since(s.started)
	up, down := s.up.Load(), s.down.Load()
	obs.BytesRelayedTotal.WithLabelValues(obs.DirUpstream).Add(float64(up))
	obs.BytesRelayedTotal.WithLabelValues(obs.DirDownstream).Add(float64(down))
	obs.SessionDurationSeconds.Observe(elapsed.Seconds())

	f := obs.Fields{
		"session":  s.id,
		"target":   s.target.Name,
		"peer":     s.peer,
		"up":       humanize.Bytes(uint64(up)),
		"down":     humanize.Bytes(uint64(down)),
		"duration": elapsed.Round(time.Millisecond).String(),
	}
	if err != nil {
		f["err"] = err.Error()
		obs.ErrorsTotal.WithLabelValues("session_transport").Inc()
		obs.Error("session.error", f)
		return
	}
	obs.Info("session.close", f)
}

func isCloseFrame(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce)
}
