package chi

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/askdocs/askdocs/internal/domain"
)

// sessions holds per-session bounded conversation histories in memory.
// History durability is out of scope; restarts start fresh.
type sessions struct {
	mu sync.Mutex
	m  map[string]*domain.History
}

func newSessions() *sessions {
	return &sessions{m: make(map[string]*domain.History)}
}

// get returns the history for id, creating the session when id is
// empty or unknown, and reports the (possibly new) session id.
func (s *sessions) get(id string) (string, *domain.History) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if h, ok := s.m[id]; ok {
			return id, h
		}
	}
	if id == "" {
		id = newSessionID()
	}
	h := &domain.History{}
	s.m[id] = h
	return id, h
}

// turns returns a copy of the session's history, oldest first.
func (s *sessions) turns(id string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.m[id]
	if !ok {
		return nil
	}
	out := make([]domain.Turn, h.Len())
	copy(out, h.Turns())
	return out
}

// record appends a completed exchange under the session's lock.
func (s *sessions) record(id, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.m[id]; ok {
		h.Append(question, answer)
	}
}

func newSessionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
