// Package bridge relays WebSocket sessions to TCP targets.
package bridge

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matst80/wsbridge/internal/httpx"
	"github.com/matst80/wsbridge/internal/obs"
	"github.com/matst80/wsbridge/internal/proto"
	"github.com/matst80/wsbridge/internal/ratelimit"
	"github.com/matst80/wsbridge/internal/state"
	"github.com/matst80/wsbridge/internal/target"
)

// Config wires a Bridge. Registry is required; the rest is optional.
type Config struct {
	Registry   *target.Registry
	Prefix     string                 // defaults to DefaultPrefix
	Store      state.Store            // session bookkeeping, nil skips it
	Limiter    *ratelimit.RateLimiter // nil admits everything
	TrustProxy bool                   // take peer identity from X-Forwarded-For
	Dialer     *net.Dialer
}

// Bridge serves front-end connections on the routing prefix.
type Bridge struct {
	reg        *target.Registry
	prefix     string
	store      state.Store
	limiter    *ratelimit.RateLimiter
	trustProxy bool
	dialer     *net.Dialer
	upgrader   websocket.Upgrader
}

var _ http.Handler = (*Bridge)(nil)

func New(cfg Config) *Bridge {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &net.Dialer{}
	}
	return &Bridge{
		reg:        cfg.Registry,
		prefix:     cfg.Prefix,
		store:      cfg.Store,
		limiter:    cfg.Limiter,
		trustProxy: cfg.TrustProxy,
		dialer:     cfg.Dialer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: readBufferSize,
			// Any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Prefix returns the routing prefix the bridge answers on.
func (b *Bridge) Prefix() string { return b.prefix }

// Resolve maps a request path to its target.
func (b *Bridge) Resolve(path string) (*target.Descriptor, error) {
	return Resolve(b.reg, path, b.prefix)
}

// ServeHTTP routes, dials the backend and only then upgrades, so a request
// that cannot be served gets a plain HTTP error instead of a socket that
// closes at once.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	peer := httpx.PeerAddr(r, b.trustProxy)

	if b.limiter != nil && !b.limiter.AllowConnection(httpx.HostOnly(peer)) {
		obs.RateLimitedTotal.WithLabelValues("connection").Inc()
		obs.Error("admission.rate_limited", obs.Fields{"peer": peer, "path": r.URL.Path})
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	d, err := b.Resolve(r.URL.Path)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Peer = peer
		}
		obs.ErrorsTotal.WithLabelValues("routing").Inc()
		obs.Error("route.reject", obs.Fields{"peer": peer, "path": r.URL.Path, "err": err.Error()})
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if b.limiter != nil && !b.limiter.AllowDial(d.Name) {
		obs.RateLimitedTotal.WithLabelValues("dial").Inc()
		obs.Error("admission.dial_limited", obs.Fields{"peer": peer, "target": d.Name})
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	backend, err := b.Dial(r.Context(), d)
	if err != nil {
		obs.ErrorsTotal.WithLabelValues("dial").Inc()
		obs.Error("backend.dial", obs.Fields{"peer": peer, "target": d.Name, "addr": d.Address, "err": err.Error()})
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	front, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		_ = backend.Close()
		obs.ErrorsTotal.WithLabelValues("upgrade").Inc()
		obs.Error("front.upgrade", obs.Fields{"peer": peer, "target": d.Name, "err": err.Error()})
		return
	}

	_ = b.Run(front, backend, d, peer)
}

// Dial opens the backend connection for d.
func (b *Bridge) Dial(ctx context.Context, d *target.Descriptor) (net.Conn, error) {
	c, err := b.dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "dial", Target: d.Name, Err: err}
	}
	return c, nil
}

// Run relays between front and backend until either direction ends, then
// closes both. It returns the error of the direction that ended first, nil
// for a clean close on either side.
func (b *Bridge) Run(front FrameConn, backend net.Conn, d *target.Descriptor, peer string) error {
	s := &session{
		id:      uuid.NewString(),
		front:   front,
		backend: backend,
		target:  d,
		peer:    peer,
		started: time.Now(),
	}

	obs.ActiveSessions.Inc()
	obs.SessionsTotal.WithLabelValues(d.Name, d.Mode.String()).Inc()
	b.register(s)
	obs.Info("session.open", obs.Fields{"session": s.id, "target": d.Name, "mode": d.Mode.String(), "addr": d.Address, "peer": peer})

	err := s.run()

	b.unregister(s)
	obs.ActiveSessions.Dec()
	s.logClose(err)
	return err
}

func (b *Bridge) register(s *session) {
	if b.store == nil {
		return
	}
	err := b.store.Register(proto.Session{
		ID:      s.id,
		Target:  s.target.Name,
		Mode:    s.target.Mode.String(),
		Peer:    s.peer,
		Started: s.started.UTC(),
	})
	if err != nil {
		obs.ErrorsTotal.WithLabelValues("state_register").Inc()
		obs.Error("state.register", obs.Fields{"session": s.id, "err": err.Error()})
	}
}

func (b *Bridge) unregister(s *session) {
	if b.store != nil {
		b.store.Remove(s.id)
	}
}
