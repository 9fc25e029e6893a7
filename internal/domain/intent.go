package domain

import (
	"strings"
	"time"
)

// IntentKind is what the user is trying to do
type IntentKind string

const (
	IntentSearch  IntentKind = "SEARCH"
	IntentBook    IntentKind = "BOOK"
	IntentModify  IntentKind = "MODIFY"
	IntentCancel  IntentKind = "CANCEL"
	IntentClarify IntentKind = "CLARIFY"
)

// Valid reports whether k is a known, actionable kind.
func (k IntentKind) Valid() bool {
	switch k {
	case IntentSearch, IntentBook, IntentModify, IntentCancel:
		return true
	}
	return false
}

// SlotName names a piece of information an intent may need
type SlotName string

const (
	SlotIntent              SlotName = "intent"
	SlotRestaurantOrCuisine SlotName = "restaurant_or_cuisine"
	SlotPartySize           SlotName = "party_size"
	SlotTime                SlotName = "time"
	SlotReservation         SlotName = "reservation"
)

// Reply is a yes/no answer to a confirmation prompt
type Reply string

const (
	ReplyNone Reply = ""
	ReplyYes  Reply = "yes"
	ReplyNo   Reply = "no"
)

// SearchFilters narrow the set of restaurants considered for recommendations
type SearchFilters struct {
	City       string     `json:"city,omitempty"`
	PriceRange PriceRange `json:"priceRange,omitempty"`
	MinRating  float64    `json:"minRating,omitempty"`
}

// Matches returns true if r passes every non-empty filter
func (f SearchFilters) Matches(r *Restaurant) bool {
	if f.City != "" && !strings.EqualFold(strings.TrimSpace(f.City), r.City) {
		return false
	}
	if f.PriceRange != "" && f.PriceRange != r.PriceRange {
		return false
	}
	if f.MinRating > 0 && r.Rating < f.MinRating {
		return false
	}
	return true
}

// Window is a normalized time preference. Exact windows request a single start time.
type Window struct {
	Range TimeRange `json:"range"`
	Exact bool      `json:"exact"`
}

// IntentSlots are the values accumulated across the turns of one conversation
type IntentSlots struct {
	Kind            IntentKind    `json:"kind,omitempty"`
	RestaurantName  string        `json:"restaurantName,omitempty"`
	RestaurantID    string        `json:"restaurantId,omitempty"`
	Cuisine         string        `json:"cuisine,omitempty"`
	PartySize       int           `json:"partySize,omitempty"`
	Window          *Window       `json:"window,omitempty"`
	ReservationRef  string        `json:"reservationRef,omitempty"`
	Contact         string        `json:"contact,omitempty"`
	CustomerName    string        `json:"customerName,omitempty"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	Filters         SearchFilters `json:"filters"`
	Residue         string        `json:"residue,omitempty"`
}

// HasRestaurantOrCuisine returns true if the user named a place or a cuisine
func (s IntentSlots) HasRestaurantOrCuisine() bool {
	return s.RestaurantName != "" || s.RestaurantID != "" || s.Cuisine != ""
}

// ExtractedSlots is what an NLP backend pulled out of a single utterance.
// Nil fields were not mentioned.
type ExtractedSlots struct {
	Kind            IntentKind
	RestaurantName  *string
	Cuisine         *string
	PartySize       *int
	TimeExpression  *string
	ReservationRef  *string
	Contact         *string
	CustomerName    *string
	SpecialRequests *string
	City            *string
	PriceRange      *string
	MinRating       *float64
	// Selection is a 1-based pick from the last offered list ("the second one")
	Selection *int
	Reply     Reply
	Residue   string
}

// HasValues returns true if the utterance carried any slot value
func (e *ExtractedSlots) HasValues() bool {
	return e.RestaurantName != nil || e.Cuisine != nil || e.PartySize != nil ||
		e.TimeExpression != nil || e.ReservationRef != nil || e.Selection != nil ||
		e.City != nil || e.PriceRange != nil || e.MinRating != nil
}

// BookingIntent is a complete, actionable request
type BookingIntent struct {
	Kind            IntentKind
	RestaurantName  string
	RestaurantID    string
	Cuisine         string
	PartySize       int
	Window          *Window
	ReservationRef  string
	Contact         string
	CustomerName    string
	SpecialRequests string
	Filters         SearchFilters
	Residue         string
}

// ClarificationRequest lists what is still missing before an intent can be acted on
type ClarificationRequest struct {
	Kind    IntentKind
	Missing []SlotName
	Residue string
}

// Preference drives restaurant ranking
type Preference struct {
	Cuisine   string
	PartySize int
	// At is the requested start; nil ranks by full capacity
	At      *time.Time
	Filters SearchFilters
}
