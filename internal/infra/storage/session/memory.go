package session

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// MemoryStore хранит сессии в памяти процесса
// Истекшие сессии не возвращаются и удаляются Sweep
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionState
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.SessionState),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now(), s.ttl) {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *domain.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Sweep удаляет сессии, простаивающие дольше ttl; возвращает число удаленных
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len количество хранимых сессий, включая еще не вычищенные истекшие
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run периодически вызывает Sweep, пока не отменен ctx
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration, logger Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				logger.Info("session sweep: removed %d idle sessions", n)
			}
		}
	}
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
}
