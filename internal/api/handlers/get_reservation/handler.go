package get_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations"
)

const (
	msgInvalidReference = "invalid reservation id or confirmation code"
	msgNotFound         = "reservation not found"
	msgForbidden        = "access denied"
	msgTryAgain         = "temporarily unavailable, please try again"
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

// Handle GET /api/v1/reservations/{ref}
// ref - ID бронирования или код подтверждения; query param contact (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	contact := r.URL.Query().Get("contact")

	reservation, err := h.service.Get(r.Context(), ref, contact)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("GET /reservations/{ref} - Reservation not found: ref=%s", ref)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("GET /reservations/{ref} - Access denied: ref=%s", ref)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidReference)

		case domain.IsRetryable(err):
			h.logger.Warn("GET /reservations/{ref} - Retryable failure: ref=%s, error=%v", ref, err)
			handlers.RespondServiceUnavailable(w, msgTryAgain)

		default:
			h.logger.Error("GET /reservations/{ref} - Failed to get reservation: ref=%s, error=%v", ref, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /reservations/{ref} - Reservation retrieved successfully: id=%s", reservation.ID)
	handlers.RespondJSON(w, http.StatusOK, reservation)
}
