package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// RestaurantRepository источник каталога ресторанов
type RestaurantRepository interface {
	LoadRestaurants(ctx context.Context) ([]*domain.Restaurant, error)
}

// ReservationRepository хранилище бронирований
type ReservationRepository interface {
	// LoadReservations возвращает неотмененные бронирования, пересекающиеся с окном
	LoadReservations(ctx context.Context, restaurantID string, window domain.TimeRange) ([]*domain.Reservation, error)
	SaveReservation(ctx context.Context, res *domain.Reservation) error
	UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus, reason string) error
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	GetReservationByCode(ctx context.Context, code string) (*domain.Reservation, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)
}

// TransactionManager выполняет функцию в сериализуемой транзакции
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// HoldScheduler планирует снятие холда в момент его истечения
type HoldScheduler interface {
	ScheduleExpiry(ctx context.Context, reservationID string, at time.Time) error
}

// EventPublisher публикует события жизненного цикла бронирования
type EventPublisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

// MetricsRecorder счетчики исходов бронирования
type MetricsRecorder interface {
	RecordReservation(outcome string)
	RecordHoldsExpired(n int)
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

type noopScheduler struct{}

func (noopScheduler) ScheduleExpiry(context.Context, string, time.Time) error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, []byte) error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordReservation(string) {}
func (noopMetrics) RecordHoldsExpired(int)   {}
