package get_available_slots

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.RestaurantID) == "" {
		return fmt.Errorf("%w: restaurantID is required", ErrInvalidInput)
	}

	if req.PartySize < 0 || req.PartySize > domain.MaxPartySize {
		return fmt.Errorf("%w: partySize must be between 0 and %d", ErrInvalidInput, domain.MaxPartySize)
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}

// validateDate проверяет, что день не в прошлом и не дальше lookaheadDays
func validateDate(day, now time.Time, lookaheadDays int) error {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return ErrInvalidDate
	}

	// Если lookaheadDays = 0, нет ограничений на дату
	if lookaheadDays == 0 {
		return nil
	}

	if day.After(today.AddDate(0, 0, lookaheadDays)) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, lookaheadDays)
	}
	return nil
}
