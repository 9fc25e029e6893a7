package list_restaurants

import (
	"net/http"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
)

const (
	msgInvalidQuery = "invalid filters: priceRange is $..$$$$, budget is low|moderate|high|luxury, minRating is 0..5"
	msgTryAgain     = "restaurant catalog is unavailable, please try again"
)

type Handler struct {
	catalog      RestaurantCatalog
	ranker       Ranker
	defaultLimit int
	logger       Logger
}

// NewHandler defaultLimit 0 - возвращать все рестораны
func NewHandler(catalog RestaurantCatalog, ranker Ranker, defaultLimit int, logger Logger) *Handler {
	return &Handler{
		catalog:      catalog,
		ranker:       ranker,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Handle GET /api/v1/restaurants и GET /api/v1/recommendations
// Query params (все опциональны): cuisine, city, priceRange | budget, minRating, partySize, limit
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	pref, limit, err := parseQuery(r.URL.Query(), h.defaultLimit)
	if err != nil {
		h.logger.Warn("GET %s - Invalid query: %v", r.URL.Path, err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	restaurants, err := h.catalog.Restaurants(r.Context())
	if err != nil {
		h.logger.Error("GET %s - Failed to load catalog: %v", r.URL.Path, err)
		handlers.RespondServiceUnavailable(w, msgTryAgain)
		return
	}

	ranking, err := h.ranker.Rank(r.Context(), restaurants, pref)
	if err != nil {
		h.logger.Error("GET %s - Failed to rank restaurants: %v", r.URL.Path, err)
		handlers.RespondInternalError(w)
		return
	}

	response := FromRanking(ranking, limit)

	h.logger.Info("GET %s - Restaurants retrieved successfully: count=%d, noExactMatch=%t",
		r.URL.Path, response.Count, response.NoExactMatch)
	handlers.RespondJSON(w, http.StatusOK, response)
}
