package list_restaurant_reservations

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations/models"
)

var (
	errMissingDate = errors.New("date is required")
	errInvalidDate = errors.New("invalid date")
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(restaurantID, dateStr, statusStr string) (*models.ListByRestaurantRequest, error) {
	if dateStr == "" {
		return nil, errMissingDate
	}

	// Парсим дату
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, errInvalidDate
	}

	req := &models.ListByRestaurantRequest{
		RestaurantID: restaurantID,
		Date:         date,
	}

	// Парсим status если указан, значение проверит сервис
	if statusStr != "" {
		status := domain.ReservationStatus(statusStr)
		req.Status = &status
	}

	return req, nil
}
