package holdexpiry

import (
	"context"
	"time"
)

// Sweeper периодически снимает все истекшие холды
// Подстраховывает отложенные задачи: холд, задача которого потерялась, снимется на следующем тике
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   Logger
	now      func() time.Time
}

func NewSweeper(expirer Expirer, interval time.Duration, logger Logger) *Sweeper {
	return &Sweeper{expirer: expirer, interval: interval, logger: logger, now: time.Now}
}

// Run блокируется до отмены ctx
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.expirer.ExpireHolds(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("hold sweeper: %v", err)
		}
		return
	}
	if n > 0 {
		s.logger.Info("hold sweeper: released %d holds", n)
	}
}
