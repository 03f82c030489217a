package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flavorhub/community-api/internal/platform/logging"
	clockport "github.com/flavorhub/community-api/internal/ports/out/clock"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// DefaultMaxClients bounds the number of tracked clients when no limit is given.
const DefaultMaxClients = 100_000

// Manager hands out one Controller per client id. Sessions live only in
// memory, so a restart signs every client out.
type Manager struct {
	dir  userdir.Directory
	auth AuthenticationBackend
	clk  clockport.Clock
	log  *slog.Logger

	newID      func() string
	maxClients int

	mu      sync.Mutex
	clients map[string]*entry
}

type Option func(*Manager)

// WithMaxClients caps the tracked clients. When the cap is reached the least
// recently seen client is dropped to make room.
func WithMaxClients(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxClients = n
		}
	}
}

func NewManager(dir userdir.Directory, auth AuthenticationBackend, clk clockport.Clock, log *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	m := &Manager{
		dir:        dir,
		auth:       auth,
		clk:        clk,
		log:        logging.Component(log, "session"),
		newID:      uuid.NewString,
		maxClients: DefaultMaxClients,
		clients:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns the controller for id, creating a fresh anonymous one under
// a new id when id is empty or unknown. The returned id is the one to hand back
// to the client.
func (m *Manager) Acquire(id string) (string, *Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	if e, ok := m.clients[id]; ok && id != "" {
		e.lastSeen = now
		return id, e.ctrl
	}

	if len(m.clients) >= m.maxClients {
		m.evictOldestLocked()
	}
	id = m.newID()
	ctrl := NewController(m.dir, m.auth, m.log.With(slog.String("session_id", id)))
	m.clients[id] = &entry{ctrl: ctrl, lastSeen: now}
	return id, ctrl
}

// Peek returns the controller for id when it is tracked. Otherwise it returns
// a detached anonymous controller that is not remembered, so read-only
// requests from unknown clients cost nothing between sweeps.
func (m *Manager) Peek(id string) (*Controller, bool) {
	if ctrl, ok := m.Lookup(id); ok {
		return ctrl, true
	}
	return NewController(m.dir, m.auth, m.log), false
}

func (m *Manager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range m.clients {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID != "" {
		delete(m.clients, oldestID)
		m.log.Warn("session limit reached; dropped least recently seen client")
	}
}

// Lookup returns the controller for id without creating one.
func (m *Manager) Lookup(id string) (*Controller, bool) {
	if id == "" {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.clients[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.clk.Now()
	return e.ctrl, true
}

// Sweep drops clients idle for longer than idle and returns how many were dropped.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clk.Now().Add(-idle)
	n := 0
	for id, e := range m.clients {
		if e.lastSeen.Before(cutoff) {
			delete(m.clients, id)
			n++
		}
	}
	if n > 0 {
		m.log.Debug("swept idle sessions", slog.Int("count", n))
	}
	return n
}

// Len returns the number of tracked clients.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
