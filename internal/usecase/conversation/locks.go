package conversation

import (
	"context"
	"hash/fnv"
	"sync"
)

// sessionLocks упорядочивает ходы одной сессии; разные сессии почти не мешают друг другу
type sessionLocks struct {
	stripes []chan struct{}
}

func newSessionLocks(n int) *sessionLocks {
	if n <= 0 {
		n = defaultLockStripes
	}
	l := &sessionLocks{stripes: make([]chan struct{}, n)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *sessionLocks) lock(ctx context.Context, sessionID string) (func(), error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	stripe := l.stripes[h.Sum32()%uint32(len(l.stripes))]

	select {
	case stripe <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-stripe }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
