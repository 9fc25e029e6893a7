package list_restaurant_reservations

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations"
)

const (
	msgInvalidParams      = "date (YYYY-MM-DD) is required; status is pending or confirmed"
	msgRestaurantNotFound = "restaurant not found"
	msgTryAgain           = "temporarily unavailable, please try again"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/restaurants/{restaurantId}/reservations
// Query params: date (обязательно), status (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantId"]
	query := r.URL.Query()

	// Формируем запрос к сервису
	serviceReq, err := ToServiceRequest(restaurantID, query.Get("date"), query.Get("status"))
	if err != nil {
		h.logger.Warn("GET /restaurants/{id}/reservations - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.ListByRestaurant(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrRestaurantNotFound):
			handlers.RespondNotFound(w, msgRestaurantNotFound)

		case errors.Is(err, reservations.ErrInvalidInput):
			h.logger.Warn("GET /restaurants/{id}/reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		case domain.IsRetryable(err):
			h.logger.Warn("GET /restaurants/{id}/reservations - Retryable failure: restaurant_id=%s, error=%v",
				restaurantID, err)
			handlers.RespondServiceUnavailable(w, msgTryAgain)

		default:
			h.logger.Error("GET /restaurants/{id}/reservations - Failed to list reservations: restaurant_id=%s, error=%v",
				restaurantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /restaurants/{id}/reservations - Reservations retrieved successfully: restaurant_id=%s, count=%d",
		restaurantID, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
