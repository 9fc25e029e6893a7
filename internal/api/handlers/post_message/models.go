package post_message

import (
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/usecase/conversation"
)

// MessageRequest HTTP request model
type MessageRequest struct {
	// SessionID игнорируется, если сессия указана в пути
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text"`
}

// MessageResponse ответ ассистента
type MessageResponse struct {
	SessionID string   `json:"sessionId"`
	State     string   `json:"state"`
	Text      string   `json:"text"`
	Payload   *Payload `json:"payload,omitempty"`
	Failed    bool     `json:"failed,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// Payload структурированная часть ответа
type Payload struct {
	Kind         string        `json:"kind"`
	Restaurants  []Restaurant  `json:"restaurants,omitempty"`
	NoExactMatch bool          `json:"noExactMatch,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Receipt      *Receipt      `json:"receipt,omitempty"`
	Missing      []string      `json:"missing,omitempty"`
}

type Restaurant struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Cuisine    string  `json:"cuisine"`
	City       string  `json:"city,omitempty"`
	Location   string  `json:"location,omitempty"`
	PriceRange string  `json:"priceRange,omitempty"`
	Rating     float64 `json:"rating"`
	Capacity   int     `json:"capacity"`
	FreeSeats  int     `json:"freeSeats"`
}

type Confirmation struct {
	Action         string  `json:"action"`
	RestaurantID   string  `json:"restaurantId,omitempty"`
	RestaurantName string  `json:"restaurantName,omitempty"`
	Start          string  `json:"start,omitempty"`
	End            string  `json:"end,omitempty"`
	PartySize      int     `json:"partySize,omitempty"`
	HoldExpiresAt  *string `json:"holdExpiresAt,omitempty"`
	ReservationID  string  `json:"reservationId,omitempty"`
}

type Receipt struct {
	ReservationID    string `json:"reservationId"`
	ConfirmationCode string `json:"confirmationCode"`
	RestaurantID     string `json:"restaurantId"`
	RestaurantName   string `json:"restaurantName"`
	Start            string `json:"start"`
	End              string `json:"end"`
	PartySize        int    `json:"partySize"`
	Status           string `json:"status"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *conversation.Response) *MessageResponse {
	out := &MessageResponse{
		SessionID: resp.SessionID,
		State:     string(resp.State),
		Text:      resp.Text,
		Failed:    resp.Failed,
		Retryable: resp.Retryable,
	}
	if resp.Payload == nil {
		return out
	}

	p := resp.Payload
	out.Payload = &Payload{
		Kind:         string(p.Kind),
		NoExactMatch: p.NoExactMatch,
	}
	for _, r := range p.Restaurants {
		out.Payload.Restaurants = append(out.Payload.Restaurants, Restaurant{
			ID:         r.ID,
			Name:       r.Name,
			Cuisine:    r.Cuisine,
			City:       r.City,
			Location:   r.Location,
			PriceRange: string(r.PriceRange),
			Rating:     r.Rating,
			Capacity:   r.Capacity,
			FreeSeats:  r.Headroom,
		})
	}
	for _, m := range p.Missing {
		out.Payload.Missing = append(out.Payload.Missing, string(m))
	}
	if c := p.Confirmation; c != nil {
		out.Payload.Confirmation = &Confirmation{
			Action:         string(c.Action),
			RestaurantID:   c.RestaurantID,
			RestaurantName: c.RestaurantName,
			Start:          formatTime(c.Start),
			End:            formatTime(c.End),
			PartySize:      c.PartySize,
			ReservationID:  c.ReservationID,
		}
		if c.HoldExpiresAt != nil {
			at := c.HoldExpiresAt.Format(time.RFC3339)
			out.Payload.Confirmation.HoldExpiresAt = &at
		}
	}
	if r := p.Receipt; r != nil {
		out.Payload.Receipt = &Receipt{
			ReservationID:    r.ReservationID,
			ConfirmationCode: r.ConfirmationCode,
			RestaurantID:     r.RestaurantID,
			RestaurantName:   r.RestaurantName,
			Start:            formatTime(r.Start),
			End:              formatTime(r.End),
			PartySize:        r.PartySize,
			Status:           string(r.Status),
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
