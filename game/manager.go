package game

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

// Session pairs a controller with the feed its input arrives on.
type Session struct {
	*Controller
	Input  *DirectionFeed
	ctx    context.Context
	cancel context.CancelFunc
}

// Start begins a fresh game and runs its ticker until the game ends or the
// session is deleted.
func (s *Session) Start() {
	s.NewGame()
	go s.Run(s.ctx)
}

// Manager keeps the live sessions keyed by a generated id.
type Manager struct {
	ctx      context.Context
	sessions sync.Map // id -> *Session
	hooks    []func(*Session)
}

// NewManager creates a manager whose sessions stop when ctx is done.
// Each hook is applied to every newly created session.
func NewManager(ctx context.Context, hooks ...func(*Session)) *Manager {
	return &Manager{ctx: ctx, hooks: hooks}
}

// Create registers a new session. The game is not started yet.
func (m *Manager) Create(opts Options) *Session {
	ctx, cancel := context.WithCancel(m.ctx)
	c := New(opts)
	c.id = uuid.New().String()
	s := &Session{Controller: c, Input: NewDirectionFeed(), ctx: ctx, cancel: cancel}
	c.Attach(s.Input)
	for _, h := range m.hooks {
		h(s)
	}
	m.sessions.Store(c.id, s)
	glog.Infof("session %s: created", c.id)
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Delete stops and forgets a session.
func (m *Manager) Delete(id string) bool {
	v, ok := m.sessions.LoadAndDelete(id)
	if !ok {
		return false
	}
	s := v.(*Session)
	s.Stop()
	s.Detach()
	s.cancel()
	glog.Infof("session %s: deleted", id)
	return true
}

func (m *Manager) Len() int {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Shutdown deletes every session.
func (m *Manager) Shutdown() {
	m.sessions.Range(func(k, _ any) bool {
		m.Delete(k.(string))
		return true
	})
}
