package conversation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/internal/service/intents"
	"github.com/m04kA/SMC-TableBooking/internal/service/recommendations"
)

// IntentParser интерфейс разбора реплики
type IntentParser interface {
	Parse(ctx context.Context, utterance string, session *domain.SessionState) (*intents.Result, error)
}

// AvailabilityEngine интерфейс движка доступности
type AvailabilityEngine interface {
	Restaurants(ctx context.Context) ([]*domain.Restaurant, error)
	Restaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	FindRestaurant(ctx context.Context, name string) (*domain.Restaurant, error)
	CheckAvailability(ctx context.Context, restaurantID string, slot domain.TimeSlot, partySize int) (*domain.Availability, error)
	Reserve(ctx context.Context, req *availability.ReserveRequest) (*domain.Reservation, error)
	Hold(ctx context.Context, req *availability.ReserveRequest) (*domain.Reservation, error)
	Confirm(ctx context.Context, id string) (*domain.Reservation, error)
	CancelWithReason(ctx context.Context, id, reason string) (*domain.Reservation, error)
	Lookup(ctx context.Context, ref string) (*domain.Reservation, error)
}

// Ranker интерфейс ранжирования ресторанов
type Ranker interface {
	Rank(ctx context.Context, restaurants []*domain.Restaurant, pref domain.Preference) (*recommendations.Ranking, error)
}

// SessionStore интерфейс хранилища сессий
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.SessionState, error)
	Save(ctx context.Context, sess *domain.SessionState) error
}

// MetricsRecorder считает ходы диалога по итоговому состоянию
type MetricsRecorder interface {
	RecordTurn(state string)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реализация TimeProvider с реальным временем
type RealTimeProvider struct{}

func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

type noopMetrics struct{}

func (noopMetrics) RecordTurn(string) {}
