package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore keeps sessions in a map guarded by a RWMutex. A cleanup
// goroutine sweeps expired entries so abandoned sessions don't pile up.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates the store and starts its sweeper.
func NewMemoryStore(cleanupInterval time.Duration, logger *zap.Logger) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger,
		stop:     make(chan struct{}),
	}

	go store.cleanupExpired(cleanupInterval)

	return store
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	copied := *s
	return &copied, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	copied := *s
	m.mu.Lock()
	m.sessions[s.ID] = &copied
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Close stops the sweeper.
func (m *MemoryStore) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for id, s := range m.sessions {
				if now.After(s.ExpiresAt) {
					delete(m.sessions, id)
					m.logger.Debug("Cleaned up expired session", zap.String("session_id", id))
				}
			}
			m.mu.Unlock()
		}
	}
}
