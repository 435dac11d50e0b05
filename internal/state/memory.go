package state

import (
	"fmt"
	"sort"
	"sync"

	"github.com/matst80/wsbridge/internal/proto"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]proto.Session
	total    int64
	closing  bool
	ready    bool
}

func NewMemory() Store {
	return &memoryStore{sessions: make(map[string]proto.Session)}
}

func (m *memoryStore) Register(s proto.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session already registered: %s", s.ID)
	}
	m.sessions[s.ID] = s
	m.total++
	return nil
}

func (m *memoryStore) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *memoryStore) Sessions() []proto.Session {
	m.mu.Lock()
	out := make([]proto.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()
	sortSessions(out)
	return out
}

func (m *memoryStore) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Active: len(m.sessions), Total: m.total}
}

func (m *memoryStore) SetClosing(closing bool) { m.mu.Lock(); m.closing = closing; m.mu.Unlock() }
func (m *memoryStore) SetReady(ready bool)     { m.mu.Lock(); m.ready = ready; m.mu.Unlock() }
func (m *memoryStore) IsClosing() bool         { m.mu.Lock(); defer m.mu.Unlock(); return m.closing }
func (m *memoryStore) IsReady() bool           { m.mu.Lock(); defer m.mu.Unlock(); return m.ready }
func (m *memoryStore) Close() error            { return nil }

func sortSessions(s []proto.Session) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Started.Equal(s[j].Started) {
			return s[i].ID < s[j].ID
		}
		return s[i].Started.Before(s[j].Started)
	})
}
