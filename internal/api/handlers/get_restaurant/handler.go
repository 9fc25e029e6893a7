package get_restaurant

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

const (
	msgRestaurantNotFound = "restaurant not found"
	msgTryAgain           = "restaurant catalog is unavailable, please try again"
)

type Handler struct {
	catalog RestaurantCatalog
	logger  Logger
}

func NewHandler(catalog RestaurantCatalog, logger Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// Handle GET /api/v1/restaurants/{restaurantId}
// Публичный endpoint: карточка ресторана с часами работы
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantId"]

	restaurant, err := h.catalog.Restaurant(r.Context(), restaurantID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("GET /restaurants/{id} - Restaurant not found: restaurant_id=%s", restaurantID)
			handlers.RespondNotFound(w, msgRestaurantNotFound)

		case domain.IsRetryable(err):
			h.logger.Warn("GET /restaurants/{id} - Retryable failure: restaurant_id=%s, error=%v", restaurantID, err)
			handlers.RespondServiceUnavailable(w, msgTryAgain)

		default:
			h.logger.Error("GET /restaurants/{id} - Failed to get restaurant: restaurant_id=%s, error=%v",
				restaurantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /restaurants/{id} - Restaurant retrieved successfully: restaurant_id=%s", restaurantID)
	handlers.RespondJSON(w, http.StatusOK, FromDomain(restaurant))
}
