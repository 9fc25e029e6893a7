package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
	createReservation "github.com/m04kA/SMC-TableBooking/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidDate        = "invalid date, expected YYYY-MM-DD"
	msgInvalidTime        = "invalid startTime, expected HH:MM"
	msgInvalidInput       = "invalid reservation data"
	msgSlotNotAvailable   = "not enough free seats in the selected slot"
	msgRestaurantNotFound = "restaurant not found"
	msgRestaurantClosed   = "restaurant is closed on the selected date"
	msgInvalidDateValue   = "reservation date is in the past"
	msgDateTooFar         = "reservation date is too far in the future"
	msgInvalidTimeSlot    = "startTime is not a bookable slot of this restaurant"
	msgTooLateToBook      = "the selected slot has already started"
	msgTryAgain           = "the restaurant is busy, please try again"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /reservations - Failed to parse request: %v", err)
		if errors.Is(err, errInvalidTime) {
			handlers.RespondBadRequest(w, msgInvalidTime)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		// Обработка ошибок use case
		switch {
		case errors.Is(err, createReservation.ErrSlotNotAvailable):
			h.logger.Warn("POST /reservations - Slot not available: restaurant_id=%s", req.RestaurantID)
			conflict := SlotNotAvailableResponse{Code: http.StatusConflict, Message: msgSlotNotAvailable}
			var capErr *domain.CapacityExceededError
			if errors.As(err, &capErr) {
				conflict.RemainingCapacity = &capErr.Remaining
			}
			handlers.RespondJSON(w, http.StatusConflict, conflict)

		case errors.Is(err, createReservation.ErrConflict):
			h.logger.Warn("POST /reservations - Retryable conflict: restaurant_id=%s", req.RestaurantID)
			handlers.RespondServiceUnavailable(w, msgTryAgain)

		case errors.Is(err, createReservation.ErrRestaurantNotFound):
			handlers.RespondNotFound(w, msgRestaurantNotFound)

		case errors.Is(err, createReservation.ErrRestaurantClosed):
			handlers.RespondBadRequest(w, msgRestaurantClosed)

		case errors.Is(err, createReservation.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgInvalidDateValue)

		case errors.Is(err, createReservation.ErrDateTooFarInFuture):
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createReservation.ErrInvalidTimeSlot):
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createReservation.ErrTooLateToBook):
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: restaurant_id=%s, error=%v",
				req.RestaurantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("POST /reservations - Reservation created successfully: id=%s, restaurant_id=%s",
		result.ID, result.RestaurantID)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
