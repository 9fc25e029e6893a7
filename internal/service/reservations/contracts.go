package reservations

import (
	"context"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// ReservationEngine операции движка доступности, нужные сервису
type ReservationEngine interface {
	Lookup(ctx context.Context, ref string) (*domain.Reservation, error)
	CancelWithReason(ctx context.Context, id, reason string) (*domain.Reservation, error)
	Restaurant(ctx context.Context, id string) (*domain.Restaurant, error)
}

// ReservationRepository чтение бронирований гостя и ресторана
type ReservationRepository interface {
	ListByContact(ctx context.Context, contact string, includeCancelled bool) ([]*domain.Reservation, error)
	// LoadReservations возвращает неотмененные бронирования, пересекающиеся с окном
	LoadReservations(ctx context.Context, restaurantID string, window domain.TimeRange) ([]*domain.Reservation, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
