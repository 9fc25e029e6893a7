package availability

import "github.com/m04kA/SMC-TableBooking/internal/domain"

// ReserveRequest запрос на бронирование или холд
type ReserveRequest struct {
	RestaurantID    string
	Slot            domain.TimeSlot
	PartySize       int
	Contact         string
	CustomerName    string
	SpecialRequests string
}

// Исходы для метрик
const (
	outcomeConfirmed        = "confirmed"
	outcomeHeld             = "held"
	outcomeCapacityExceeded = "capacity_exceeded"
	outcomeConflict         = "conflict"
	outcomeError            = "error"
)
