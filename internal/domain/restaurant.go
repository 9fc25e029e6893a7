package domain

import (
	"time"

	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

// PriceRange is the "$".."$$$$" price band of a restaurant.
type PriceRange string

const (
	PriceBudget     PriceRange = "$"
	PriceModerate   PriceRange = "$$"
	PriceUpscale    PriceRange = "$$$"
	PriceFineDining PriceRange = "$$$$"
)

// Valid reports whether p is one of the known price bands.
func (p PriceRange) Valid() bool {
	switch p {
	case PriceBudget, PriceModerate, PriceUpscale, PriceFineDining:
		return true
	}
	return false
}

// Restaurant is a bookable venue. Restaurants are read-only for the booking core.
type Restaurant struct {
	ID         string
	Name       string
	Cuisine    string
	Capacity   int
	City       string
	Location   string
	PriceRange PriceRange
	Rating     float64
	Policy     OperatingPolicy
}

// DayHours are the opening hours for one weekday.
// A Close at or before Open means the restaurant closes after midnight.
type DayHours struct {
	Open  types.TimeString `json:"open"`
	Close types.TimeString `json:"close"`
}

// OperatingPolicy describes when and how long tables can be booked.
type OperatingPolicy struct {
	Timezone       string                    `json:"timezone"`
	SeatingMinutes int                       `json:"seatingMinutes"`
	Hours          map[time.Weekday]DayHours `json:"hours"`
}

// Location returns the policy timezone, falling back to UTC.
func (p OperatingPolicy) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SeatingDuration is how long a single reservation occupies its seats.
func (p OperatingPolicy) SeatingDuration() time.Duration {
	if p.SeatingMinutes <= 0 {
		return DefaultSeatingDuration
	}
	return time.Duration(p.SeatingMinutes) * time.Minute
}

// HoursFor returns the opening hours of the given weekday, false when closed.
func (p OperatingPolicy) HoursFor(day time.Weekday) (DayHours, bool) {
	h, ok := p.Hours[day]
	if !ok || h.Open.IsZero() || h.Close.IsZero() {
		return DayHours{}, false
	}
	return h, true
}

// EveryDay builds hours that are identical for all seven weekdays.
func EveryDay(open, close types.TimeString) map[time.Weekday]DayHours {
	hours := make(map[time.Weekday]DayHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = DayHours{Open: open, Close: close}
	}
	return hours
}
