// session/session.go
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/idlerpg/achievements"
	"github.com/wfunc/idlerpg/config"
	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/engine"
	"github.com/wfunc/idlerpg/logger"
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/network"
	"github.com/wfunc/idlerpg/persistence"
)

// Session binds one connection to one player's engine.
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   string
	Engine     *engine.Engine
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.Mutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// WithEngine serializes transitions: one connection may interleave reads, the
// autosave timer and the expiry sweep, but the snapshot sees one transition
// at a time.
func (s *Session) WithEngine(fn func(*engine.Engine)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Engine != nil {
		fn(s.Engine)
	}
}

// Manager tracks live sessions, indexed by session id and player id.
type Manager struct {
	sessions map[string]*Session
	byPlayer map[string][]*Session
	store    persistence.Store
	cfg      config.GameConfig
	gen      content.Generator
	eval     achievements.Evaluator
	mutex    sync.RWMutex
}

func NewManager(store persistence.Store, cfg config.GameConfig, gen content.Generator, eval achievements.Evaluator) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byPlayer: make(map[string][]*Session),
		store:    store,
		cfg:      cfg,
		gen:      gen,
		eval:     eval,
	}
}

// Open registers a connection as a new session.
func (m *Manager) Open(conn network.Connection) *Session {
	s := NewSession(uuid.NewString(), conn)
	m.mutex.Lock()
	m.sessions[s.ID] = s
	m.mutex.Unlock()
	return s
}

// Attach loads the player's snapshot, reconciles idle time and builds the
// engine. A snapshot that is missing or fails to deserialize falls back to a
// fresh state; the engine caller never sees the failure.
func (m *Manager) Attach(s *Session, playerID string) {
	state, err := m.store.LoadSnapshot(playerID)
	switch err {
	case nil:
	case persistence.ErrSnapshotNotFound:
		state = models.NewPlayerState(playerID, time.Now())
	default:
		logger.Log.Warnf("Snapshot for %s unusable, starting fresh: %v", playerID, err)
		state = models.NewPlayerState(playerID, time.Now())
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	eng := engine.New(state, m.cfg, m.gen, m.eval, rng, time.Now)
	eng.Reconcile()

	s.PlayerID = playerID
	s.Engine = eng

	m.mutex.Lock()
	m.byPlayer[playerID] = append(m.byPlayer[playerID], s)
	m.mutex.Unlock()
}

// Close saves the session's snapshot and drops it from the indexes.
func (m *Manager) Close(s *Session) {
	if s.Engine != nil && s.PlayerID != "" {
		s.WithEngine(func(eng *engine.Engine) {
			eng.State().LastSave = time.Now()
			if err := m.store.SaveSnapshot(s.PlayerID, eng.State()); err != nil {
				logger.Log.Errorf("Failed to save snapshot for %s: %v", s.PlayerID, err)
			}
		})
	}

	m.mutex.Lock()
	delete(m.sessions, s.ID)
	live := m.byPlayer[s.PlayerID][:0]
	for _, other := range m.byPlayer[s.PlayerID] {
		if other.ID != s.ID {
			live = append(live, other)
		}
	}
	if len(live) == 0 {
		delete(m.byPlayer, s.PlayerID)
	} else {
		m.byPlayer[s.PlayerID] = live
	}
	m.mutex.Unlock()

	s.Conn.Close()
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// ByPlayer returns a copy of the live sessions of one player.
func (m *Manager) ByPlayer(playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]*Session, len(m.byPlayer[playerID]))
	copy(out, m.byPlayer[playerID])
	return out
}

// All returns a copy of every live session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count reports live sessions.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
