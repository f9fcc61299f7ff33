package session

import (
	"sync"
	"time"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a conversation. Slice order is authoritative;
// the timestamp exists for age-based sweeping and display only.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type conversation struct {
	turns        []Turn
	activeTicket *int64
}

// gate serializes turns for one session. refs counts holders and waiters;
// it is guarded by the store mutex, so the gate is removed from the map
// only once nobody references it.
type gate struct {
	mu   sync.Mutex
	refs int
}

// Store is a thread-safe in-memory registry of conversation sessions.
// State does not survive process restarts; a production deployment would
// back this with an external keyed store.
//
// Turn gates live in their own map, keyed by session ID, so that clearing
// or sweeping a session while a turn holds its gate never mints a second
// gate for the same session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*conversation
	gates    map[string]*gate
	limit    int
	now      func() time.Time
}

// NewStore creates a store that retains at most limit turns per session.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 20
	}
	return &Store{
		sessions: make(map[string]*conversation),
		gates:    make(map[string]*gate),
		limit:    limit,
		now:      time.Now,
	}
}

// History returns a copy of the session's turns, oldest first. Unknown
// sessions yield an empty slice.
func (s *Store) History(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.sessions[sessionID]
	if !ok {
		return []Turn{}
	}
	out := make([]Turn, len(conv.turns))
	copy(out, conv.turns)
	return out
}

// Append adds one turn, creating the session implicitly. When the history
// grows past the limit the oldest turns are dropped.
func (s *Store) Append(sessionID string, role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.getOrCreateLocked(sessionID)
	conv.turns = append(conv.turns, Turn{Role: role, Content: content, Timestamp: s.now()})
	if len(conv.turns) > s.limit {
		conv.turns = conv.turns[len(conv.turns)-s.limit:]
	}
}

// Clear removes the session entirely, history and ticket binding included.
// Clearing an unknown session is a no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// SetActiveTicket binds the session to a ticket, last write wins.
func (s *Store) SetActiveTicket(sessionID string, ticketID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.getOrCreateLocked(sessionID)
	conv.activeTicket = &ticketID
}

// ActiveTicket returns the session's bound ticket, if any.
func (s *Store) ActiveTicket(sessionID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.sessions[sessionID]
	if !ok || conv.activeTicket == nil {
		return 0, false
	}
	return *conv.activeTicket, true
}

// SessionIDs enumerates known sessions in no particular order.
func (s *Store) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes every session whose most recent turn is older than maxAge
// and returns the count removed. Sessions with no turns yet are kept; they
// have no timestamp to compare. Sessions with a turn in flight are skipped
// until the next run.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, conv := range s.sessions {
		if len(conv.turns) == 0 {
			continue
		}
		if !conv.turns[len(conv.turns)-1].Timestamp.Before(cutoff) {
			continue
		}
		if g, ok := s.gates[id]; ok && g.refs > 0 {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// LockSession serializes turns for one session. It returns the unlock
// function; concurrent turns for different sessions do not contend. Locking
// does not create the session record itself, and the gate is dropped once
// the last holder or waiter releases it.
func (s *Store) LockSession(sessionID string) func() {
	s.mu.Lock()
	g, ok := s.gates[sessionID]
	if !ok {
		g = &gate{}
		s.gates[sessionID] = g
	}
	g.refs++
	s.mu.Unlock()

	g.mu.Lock()
	return func() {
		g.mu.Unlock()
		s.mu.Lock()
		g.refs--
		if g.refs == 0 {
			delete(s.gates, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *Store) getOrCreateLocked(sessionID string) *conversation {
	conv, ok := s.sessions[sessionID]
	if !ok {
		conv = &conversation{}
		s.sessions[sessionID] = conv
	}
	return conv
}
