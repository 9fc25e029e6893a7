package holdexpiry

import (
	"context"
	"time"
)

// Expirer снимает истекшие холды (availability.Engine)
type Expirer interface {
	ExpireHold(ctx context.Context, id string) (bool, error)
	ExpireHolds(ctx context.Context, now time.Time) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
