package list_restaurants

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/recommendations"
)

const maxLimit = 100

var (
	errInvalidPriceRange = errors.New("invalid priceRange")
	errInvalidBudget     = errors.New("invalid budget")
	errInvalidRating     = errors.New("invalid minRating")
	errInvalidPartySize  = errors.New("invalid partySize")
	errInvalidLimit      = errors.New("invalid limit")
)

// budgets словесные бюджеты в ценовые категории
var budgets = map[string]domain.PriceRange{
	"low":      domain.PriceBudget,
	"moderate": domain.PriceModerate,
	"high":     domain.PriceUpscale,
	"luxury":   domain.PriceFineDining,
}

// RestaurantResponse ресторан в ответе API
type RestaurantResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Cuisine    string  `json:"cuisine"`
	City       string  `json:"city,omitempty"`
	Location   string  `json:"location,omitempty"`
	PriceRange string  `json:"priceRange,omitempty"`
	Rating     float64 `json:"rating"`
	Capacity   int     `json:"capacity"`
	Timezone   string  `json:"timezone"`
}

// RestaurantListResponse HTTP response model
type RestaurantListResponse struct {
	Restaurants  []RestaurantResponse `json:"restaurants"`
	Count        int                  `json:"count"`
	NoExactMatch bool                 `json:"noExactMatch"`
	Message      string               `json:"message"`
}

// parseQuery разбирает фильтры из query параметров; limit 0 - без ограничения
func parseQuery(q url.Values, defaultLimit int) (domain.Preference, int, error) {
	pref := domain.Preference{
		Cuisine: strings.TrimSpace(q.Get("cuisine")),
		Filters: domain.SearchFilters{City: strings.TrimSpace(q.Get("city"))},
	}

	if raw := q.Get("priceRange"); raw != "" {
		p := domain.PriceRange(raw)
		if !p.Valid() {
			return pref, 0, errInvalidPriceRange
		}
		pref.Filters.PriceRange = p
	} else if raw := q.Get("budget"); raw != "" {
		p, ok := budgets[strings.ToLower(raw)]
		if !ok {
			return pref, 0, errInvalidBudget
		}
		pref.Filters.PriceRange = p
	}

	if raw := q.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			return pref, 0, errInvalidRating
		}
		pref.Filters.MinRating = v
	}

	if raw := q.Get("partySize"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > domain.MaxPartySize {
			return pref, 0, errInvalidPartySize
		}
		pref.PartySize = v
	}

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > maxLimit {
			return pref, 0, errInvalidLimit
		}
		limit = v
	}

	return pref, limit, nil
}

// FromRanking конвертирует ранжирование в HTTP response
func FromRanking(ranking *recommendations.Ranking, limit int) *RestaurantListResponse {
	top := ranking.Top(limit)
	out := &RestaurantListResponse{
		Restaurants:  make([]RestaurantResponse, 0, len(top)),
		Count:        len(top),
		NoExactMatch: ranking.NoExactMatch,
		Message:      ranking.Message,
	}
	for _, c := range top {
		r := c.Restaurant
		out.Restaurants = append(out.Restaurants, RestaurantResponse{
			ID:         r.ID,
			Name:       r.Name,
			Cuisine:    r.Cuisine,
			City:       r.City,
			Location:   r.Location,
			PriceRange: string(r.PriceRange),
			Rating:     r.Rating,
			Capacity:   r.Capacity,
			Timezone:   r.Policy.Location().String(),
		})
	}
	return out
}
