package recommendations

import (
	"context"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// AvailabilityChecker источник свободной вместимости ресторана в слоте
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, restaurantID string, slot domain.TimeSlot, partySize int) (*domain.Availability, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
