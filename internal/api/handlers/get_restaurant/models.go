package get_restaurant

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// HoursResponse часы работы в один день недели
type HoursResponse struct {
	Day   string `json:"day"`
	Open  string `json:"open,omitempty"`
	Close string `json:"close,omitempty"`
	// Closed ресторан в этот день не работает
	Closed bool `json:"closed,omitempty"`
}

// RestaurantResponse ресторан с правилами бронирования
type RestaurantResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Cuisine        string          `json:"cuisine"`
	City           string          `json:"city,omitempty"`
	Location       string          `json:"location,omitempty"`
	PriceRange     string          `json:"priceRange,omitempty"`
	Rating         float64         `json:"rating"`
	Capacity       int             `json:"capacity"`
	Timezone       string          `json:"timezone"`
	SeatingMinutes int             `json:"seatingMinutes"`
	Hours          []HoursResponse `json:"hours"`
}

// FromDomain конвертирует ресторан в HTTP response; дни недели с понедельника
func FromDomain(r *domain.Restaurant) *RestaurantResponse {
	out := &RestaurantResponse{
		ID:             r.ID,
		Name:           r.Name,
		Cuisine:        r.Cuisine,
		City:           r.City,
		Location:       r.Location,
		PriceRange:     string(r.PriceRange),
		Rating:         r.Rating,
		Capacity:       r.Capacity,
		Timezone:       r.Policy.Location().String(),
		SeatingMinutes: int(r.Policy.SeatingDuration() / time.Minute),
		Hours:          make([]HoursResponse, 0, 7),
	}

	for i := 1; i <= 7; i++ {
		day := time.Weekday(i % 7)
		item := HoursResponse{Day: strings.ToLower(day.String())}
		if h, ok := r.Policy.HoursFor(day); ok {
			item.Open = h.Open.String()
			item.Close = h.Close.String()
		} else {
			item.Closed = true
		}
		out.Hours = append(out.Hours, item)
	}
	return out
}
