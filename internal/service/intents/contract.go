package intents

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// NLPBackend извлекает слоты из одной реплики пользователя
// prior - уже накопленные слоты, бэкенд может использовать их как контекст
type NLPBackend interface {
	ExtractSlots(ctx context.Context, utterance string, prior domain.IntentSlots) (*domain.ExtractedSlots, error)
}

// MetricsRecorder длительность и результат вызовов NLP
type MetricsRecorder interface {
	RecordNLP(result string, duration time.Duration)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

type noopMetrics struct{}

func (noopMetrics) RecordNLP(string, time.Duration) {}
