package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-TableBooking/internal/usecase/get_available_slots"
)

const (
	msgMissingDate        = "date is required"
	msgInvalidQuery       = "invalid date or partySize, expected date=YYYY-MM-DD and an integer partySize"
	msgInvalidInput       = "invalid request"
	msgRestaurantNotFound = "restaurant not found"
	msgInvalidDate        = "date is in the past"
	msgDateTooFar         = "date is too far in the future"
	msgTryAgain           = "availability is temporarily unavailable, please try again"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/restaurants/{restaurantId}/available-slots
// Query params: date (required, YYYY-MM-DD), partySize (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantId"]

	// Извлекаем date из query параметров
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /restaurants/{id}/available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	// Формируем запрос к use case (с парсингом даты)
	useCaseReq, err := ToUseCaseRequest(restaurantID, dateStr, r.URL.Query().Get("partySize"))
	if err != nil {
		h.logger.Warn("GET /restaurants/{id}/available-slots - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		// Обработка ошибок use case
		switch {
		case errors.Is(err, getAvailableSlots.ErrRestaurantNotFound):
			h.logger.Warn("GET /restaurants/{id}/available-slots - Restaurant not found: restaurant_id=%s", restaurantID)
			handlers.RespondNotFound(w, msgRestaurantNotFound)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, getAvailableSlots.ErrDateTooFarInFuture):
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		case domain.IsRetryable(err):
			h.logger.Warn("GET /restaurants/{id}/available-slots - Retryable failure: %v", err)
			handlers.RespondServiceUnavailable(w, msgTryAgain)

		default:
			h.logger.Error("GET /restaurants/{id}/available-slots - Failed to get slots: restaurant_id=%s, error=%v",
				restaurantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("GET /restaurants/{id}/available-slots - Slots retrieved successfully: restaurant_id=%s, slots_count=%d",
		restaurantID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, response)
}
