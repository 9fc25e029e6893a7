package availability

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// intervalLocker блокирует интервалы времени в пределах ключа (ресторана)
// Пересекающиеся интервалы ждут друг друга, непересекающиеся выполняются параллельно
type intervalLocker struct {
	mu   sync.Mutex
	held map[string][]*heldInterval
}

type heldInterval struct {
	rng  domain.TimeRange
	done chan struct{}
}

func newIntervalLocker() *intervalLocker {
	return &intervalLocker{held: make(map[string][]*heldInterval)}
}

// Lock ждет, пока пересекающиеся интервалы освободятся, или пока не отменится ctx
// Возвращаемая функция освобождает интервал, повторный вызов ничего не делает
func (l *intervalLocker) Lock(ctx context.Context, key string, rng domain.TimeRange) (func(), error) {
	for {
		l.mu.Lock()
		blocker := l.overlapping(key, rng)
		if blocker == nil {
			h := &heldInterval{rng: rng, done: make(chan struct{})}
			l.held[key] = append(l.held[key], h)
			l.mu.Unlock()

			var once sync.Once
			return func() { once.Do(func() { l.release(key, h) }) }, nil
		}
		l.mu.Unlock()

		select {
		case <-blocker.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *intervalLocker) overlapping(key string, rng domain.TimeRange) *heldInterval {
	for _, h := range l.held[key] {
		if h.rng.Overlaps(rng) {
			return h
		}
	}
	return nil
}

func (l *intervalLocker) release(key string, h *heldInterval) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.held[key]
	for i, cur := range list {
		if cur == h {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(l.held, key)
	} else {
		l.held[key] = list
	}
	close(h.done)
}
