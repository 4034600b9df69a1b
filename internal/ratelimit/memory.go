package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	windowStart time.Time
	count       int
	lastEmail   string
	lastDigest  string
}

// Memory is a process-local limiter. A single mutex guards the whole
// admit transition, so concurrent requests from one IP cannot both slip
// past the count check. Lapsed entries are evicted opportunistically
// during Admit, keeping the map bounded by active clients.
type Memory struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
}

// NewMemory creates an in-process limiter with the given settings.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Admit applies the window and cooldown policy for one attempt. The error
// return is always nil; it exists to satisfy Limiter.
func (m *Memory) Admit(_ context.Context, clientIP, email, message string) (bool, error) {
	d := digest(message)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep(now)

	e, ok := m.entries[clientIP]
	if !ok || now.Sub(e.windowStart) > m.cfg.Window {
		m.entries[clientIP] = &entry{
			windowStart: now,
			count:       1,
			lastEmail:   email,
			lastDigest:  d,
		}
		return true, nil
	}

	elapsed := now.Sub(e.windowStart)
	if email == e.lastEmail && elapsed < m.cfg.EmailCooldown {
		return false, nil
	}
	if d == e.lastDigest && elapsed < m.cfg.MessageCooldown {
		return false, nil
	}
	if e.count >= m.cfg.MaxRequests {
		return false, nil
	}

	e.count++
	e.lastEmail = email
	e.lastDigest = d
	return true, nil
}

// Len reports how many client entries are currently held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// maybeSweep drops entries whose window has lapsed. Called with mu held.
func (m *Memory) maybeSweep(now time.Time) {
	if m.cfg.SweepInterval <= 0 || now.Sub(m.lastSweep) < m.cfg.SweepInterval {
		return
	}
	m.lastSweep = now
	for ip, e := range m.entries {
		if now.Sub(e.windowStart) > m.cfg.Window {
			delete(m.entries, ip)
		}
	}
}
