package create_reservation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

const maxContactLength = 254

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.RestaurantID) == "" {
		return fmt.Errorf("%w: restaurantID is required", ErrInvalidInput)
	}

	if req.PartySize < domain.MinPartySize || req.PartySize > domain.MaxPartySize {
		return fmt.Errorf("%w: partySize must be between %d and %d", ErrInvalidInput, domain.MinPartySize, domain.MaxPartySize)
	}

	contact := strings.TrimSpace(req.Contact)
	if contact == "" {
		return fmt.Errorf("%w: contact is required", ErrInvalidInput)
	}
	if len(contact) > maxContactLength {
		return fmt.Errorf("%w: contact is too long", ErrInvalidInput)
	}

	if utf8.RuneCountInString(req.SpecialRequests) > domain.MaxSpecialRequestsLength {
		return fmt.Errorf("%w: specialRequests is too long", ErrInvalidInput)
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	return nil
}

// validateDate проверяет, что день брони не в прошлом и не дальше lookaheadDays
// day и now должны быть в часовом поясе ресторана
func validateDate(day, now time.Time, lookaheadDays int) error {
	today := midnight(now)
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

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
