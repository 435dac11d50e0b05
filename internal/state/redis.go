package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/matst80/wsbridge/internal/obs"
	"github.com/matst80/wsbridge/internal/proto"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "wsbridge:session:"
	totalKey         = "wsbridge:sessions_total"
)

// redisStore shares the live session list between bridge instances. Each
// instance owns the keys of its own sessions and keeps their TTL fresh, so a
// crashed instance's sessions age out on their own.
type redisStore struct {
	client     *redis.Client
	instanceID string

	mu      sync.Mutex
	local   map[string]proto.Session // sessions owned by this instance
	closing bool
	ready   bool

	heartbeatInterval time.Duration
	keyTTL            time.Duration
	opTimeout         time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewRedis connects to Redis and starts the TTL refresh loop.
func NewRedis(addr, password string, db int) (Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	r := newRedisStore(rdb)
	go r.maintain()
	return r, nil
}

func newRedisStore(rdb *redis.Client) *redisStore {
	return &redisStore{
		client:            rdb,
		instanceID:        fmt.Sprintf("wsbridge-%d", time.Now().UnixNano()),
		local:             make(map[string]proto.Session),
		heartbeatInterval: 30 * time.Second,
		keyTTL:            2 * time.Minute,
		opTimeout:         2 * time.Second,
		stop:              make(chan struct{}),
		done:              make(chan struct{}),
	}
}

var _ Store = (*redisStore)(nil)

func (r *redisStore) SetClosing(closing bool) { r.mu.Lock(); r.closing = closing; r.mu.Unlock() }
func (r *redisStore) SetReady(ready bool)     { r.mu.Lock(); r.ready = ready; r.mu.Unlock() }
func (r *redisStore) IsClosing() bool         { r.mu.Lock(); defer r.mu.Unlock(); return r.closing }
func (r *redisStore) IsReady() bool           { r.mu.Lock(); defer r.mu.Unlock(); return r.ready }

func (r *redisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}

func (r *redisStore) Register(s proto.Session) error {
	s.Instance = r.instanceID
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ctx, cancel := r.ctx()
	defer cancel()
	ok, err := r.client.SetNX(ctx, sessionKeyPrefix+s.ID, data, r.keyTTL).Result()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("session already registered: %s", s.ID)
	}
	if err := r.client.Incr(ctx, totalKey).Err(); err != nil {
		obs.Error("redis.incr_total", obs.Fields{"err": err.Error()})
	}
	r.mu.Lock()
	r.local[s.ID] = s
	r.mu.Unlock()
	return nil
}

func (r *redisStore) Remove(id string) {
	r.mu.Lock()
	delete(r.local, id)
	r.mu.Unlock()
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		obs.Error("redis.remove_session", obs.Fields{"err": err.Error(), "id": id})
	}
}

// Sessions lists every instance's sessions. On Redis errors it falls back to
// the sessions this instance owns.
func (r *redisStore) Sessions() []proto.Session {
	out, err := r.scanSessions()
	if err != nil {
		obs.Error("redis.scan_sessions", obs.Fields{"err": err.Error()})
		out = r.localSessions()
	}
	sortSessions(out)
	return out
}

func (r *redisStore) scanSessions() ([]proto.Session, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	var keys []string
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []proto.Session{}, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]proto.Session, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok { // expired between SCAN and MGET
			continue
		}
		var s proto.Session
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			obs.Error("redis.unmarshal_session", obs.Fields{"err": err.Error(), "key": keys[i]})
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *redisStore) localSessions() []proto.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]proto.Session, 0, len(r.local))
	for _, s := range r.local {
		out = append(out, s)
	}
	return out
}

func (r *redisStore) Stats() Stats {
	st := Stats{Active: len(r.Sessions())}
	ctx, cancel := r.ctx()
	defer cancel()
	total, err := r.client.Get(ctx, totalKey).Int64()
	if err != nil && err != redis.Nil {
		obs.Error("redis.get_total", obs.Fields{"err": err.Error()})
	}
	st.Total = total
	return st
}

// Close removes this instance's session keys and closes the client.
func (r *redisStore) Close() error {
	close(r.stop)
	<-r.done
	ids := make([]string, 0)
	r.mu.Lock()
	for id := range r.local {
		ids = append(ids, sessionKeyPrefix+id)
	}
	r.local = make(map[string]proto.Session)
	r.mu.Unlock()
	if len(ids) > 0 {
		ctx, cancel := r.ctx()
		if err := r.client.Del(ctx, ids...).Err(); err != nil {
			obs.Error("redis.close.cleanup", obs.Fields{"err": err.Error()})
		}
		cancel()
	}
	return r.client.Close()
}

func (r *redisStore) maintain() {
	defer close(r.done)
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.heartbeat()
		}
	}
}

// heartbeat extends the TTL of locally owned session keys.
func (r *redisStore) heartbeat() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.local))
	for id := range r.local {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	if len(ids) == 0 {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	pipe := r.client.Pipeline()
	for _, id := range ids {
		pipe.Expire(ctx, sessionKeyPrefix+id, r.keyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		obs.Error("redis.heartbeat", obs.Fields{"err": err.Error(), "sessions": len(ids)})
	}
}
