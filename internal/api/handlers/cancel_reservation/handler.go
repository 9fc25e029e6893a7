package cancel_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidInput       = "contact is required"
	msgNotFound           = "reservation not found"
	msgForbidden          = "access denied"
	msgTryAgain           = "the restaurant is busy, please try again"
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

// Handle PATCH /api/v1/reservations/{ref}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	// Декодируем body
	var req CancelReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{ref}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Отменяем бронирование
	reservation, err := h.service.Cancel(r.Context(), ref, req.ToServiceRequest())
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("PATCH /reservations/{ref}/cancel - Reservation not found: ref=%s", ref)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("PATCH /reservations/{ref}/cancel - Access denied: ref=%s", ref)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		case domain.IsRetryable(err):
			h.logger.Warn("PATCH /reservations/{ref}/cancel - Retryable failure: ref=%s, error=%v", ref, err)
			handlers.RespondServiceUnavailable(w, msgTryAgain)

		default:
			h.logger.Error("PATCH /reservations/{ref}/cancel - Failed to cancel reservation: ref=%s, error=%v",
				ref, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{ref}/cancel - Reservation cancelled successfully: id=%s", reservation.ID)
	handlers.RespondJSON(w, http.StatusOK, reservation)
}
