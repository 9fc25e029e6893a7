package list_reservations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations/models"
)

const (
	msgMissingContact          = "contact query parameter is required"
	msgInvalidIncludeCancelled = "includeCancelled must be true or false"
	msgTryAgain                = "reservations are temporarily unavailable, please try again"
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

// Handle GET /api/v1/reservations?contact=...&includeCancelled=true
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Получаем includeCancelled из query параметров (опционально)
	includeCancelled := false
	if raw := query.Get("includeCancelled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("GET /reservations - Invalid includeCancelled: %v", err)
			handlers.RespondBadRequest(w, msgInvalidIncludeCancelled)
			return
		}
		includeCancelled = v
	}

	// Формируем запрос к сервису
	serviceReq := &models.ListByContactRequest{
		Contact:          query.Get("contact"),
		IncludeCancelled: includeCancelled,
	}

	result, err := h.service.ListByContact(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgMissingContact)
			return
		}
		if domain.IsRetryable(err) {
			h.logger.Warn("GET /reservations - Retryable failure: %v", err)
			handlers.RespondServiceUnavailable(w, msgTryAgain)
			return
		}
		h.logger.Error("GET /reservations - Failed to list reservations: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reservations - Reservations retrieved successfully: count=%d", result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
