// Package state records live sessions so the status endpoints can report them.
package state

import (
	"github.com/matst80/wsbridge/internal/obs"
	"github.com/matst80/wsbridge/internal/proto"
)

// Store abstracts session bookkeeping so several bridge instances can share
// one view through Redis.
type Store interface {
	Register(s proto.Session) error
	Remove(id string)
	Sessions() []proto.Session
	Stats() Stats
	SetReady(ready bool)
	SetClosing(closing bool)
	IsReady() bool
	IsClosing() bool
	Close() error
}

// Stats are the counters behind /api/state.
type Stats struct {
	Active int
	Total  int64
}

// New returns an in-memory store, or a Redis-backed one when redisAddr is set.
func New(redisAddr, redisPassword string, redisDB int) (Store, error) {
	if redisAddr == "" {
		obs.Info("state.backend", obs.Fields{"type": "in-memory"})
		return NewMemory(), nil
	}
	obs.Info("state.backend", obs.Fields{"type": "redis", "addr": redisAddr})
	return NewRedis(redisAddr, redisPassword, redisDB)
}
