package state

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/wsbridge/internal/proto"
	"gotest.tools/assert"
)

func session(target string, started time.Time) proto.Session {
	return proto.Session{ID: uuid.NewString(), Target: target, Mode: "telnet", Peer: "127.0.0.1:5000", Started: started}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	a := session("console", now)
	b := session("tv11", now.Add(time.Second))

	assert.NilError(t, s.Register(b))
	assert.NilError(t, s.Register(a))
	assert.ErrorContains(t, s.Register(a), "already registered")

	list := s.Sessions()
	assert.Equal(t, len(list), 2)
	assert.Equal(t, list[0].ID, a.ID)
	assert.Equal(t, list[1].Target, "tv11")

	s.Remove(a.ID)
	s.Remove("never-registered")
	st := s.Stats()
	assert.Equal(t, st.Active, 1)
	assert.Assert(t, st.Total >= 2)

	assert.Assert(t, !s.IsReady())
	s.SetReady(true)
	assert.Assert(t, s.IsReady())
	s.SetClosing(true)
	assert.Assert(t, s.IsClosing())
	s.Remove(b.ID)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	exerciseStore(t, s)
	assert.Equal(t, s.Stats().Total, int64(2))
	assert.NilError(t, s.Close())
}

// TestRedisStore runs against a real server when WSBRIDGE_TEST_REDIS is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("WSBRIDGE_TEST_REDIS")
	if addr == "" {
		t.Skip("WSBRIDGE_TEST_REDIS not set")
	}
	db, _ := strconv.Atoi(os.Getenv("WSBRIDGE_TEST_REDIS_DB"))
	s, err := NewRedis(addr, os.Getenv("WSBRIDGE_TEST_REDIS_PASSWORD"), db)
	assert.NilError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestNewFallsBackToMemory(t *testing.T) {
	s, err := New("", "", 0)
	assert.NilError(t, err)
	_, ok := s.(*memoryStore)
	assert.Assert(t, ok)
}
