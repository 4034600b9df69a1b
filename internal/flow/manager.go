package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a point-in-time snapshot of one wizard session, safe to hand to
// handlers after the manager lock is released.
type State struct {
	SessionID string            `json:"sessionId"`
	Step      int               `json:"step"`
	StepName  string            `json:"stepName"`
	Fields    map[string]string `json:"fields"`
	Issues    []string          `json:"issues,omitempty"`
	Terminal  bool              `json:"terminal"`
}

type session struct {
	wizard  *Wizard
	touched time.Time
}

// Manager owns the in-process wizard sessions. Idle sessions lapse after
// ttl and are evicted on the next access.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a fresh session and returns its initial state.
func (m *Manager) Create() State {
	id := uuid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict()
	m.sessions[id] = &session{wizard: NewWizard(), touched: m.now()}
	return m.snapshot(id)
}

// Snapshot returns the session's current state, or false if it is unknown
// or lapsed.
func (m *Manager) Snapshot(id string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict()
	if _, ok := m.sessions[id]; !ok {
		return State{}, false
	}
	return m.snapshot(id), true
}

// Update runs fn against the session's wizard under the manager lock and
// returns the resulting state. fn must not retain the wizard.
func (m *Manager) Update(id string, fn func(*Wizard)) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict()
	s, ok := m.sessions[id]
	if !ok {
		return State{}, false
	}
	fn(s.wizard)
	s.touched = m.now()
	return m.snapshot(id), true
}

// Claim atomically latches the session terminal so that exactly one caller
// may run the final submission. ok is false for an unknown or lapsed
// session; already reports a session that was terminal before this call.
// A caller whose submission fails releases the claim with Wizard.Reopen.
func (m *Manager) Claim(id string) (st State, already, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict()
	s, present := m.sessions[id]
	if !present {
		return State{}, false, false
	}
	if s.wizard.Terminal() {
		return m.snapshot(id), true, true
	}
	s.wizard.Complete()
	s.touched = m.now()
	return m.snapshot(id), false, true
}

// snapshot builds a State for id. Called with mu held.
func (m *Manager) snapshot(id string) State {
	w := m.sessions[id].wizard
	return State{
		SessionID: id,
		Step:      int(w.Step()),
		StepName:  w.Step().String(),
		Fields:    w.Fields(),
		Issues:    w.Validate(),
		Terminal:  w.Terminal(),
	}
}

// evict removes lapsed sessions. Called with mu held.
func (m *Manager) evict() {
	if m.ttl <= 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.touched.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
