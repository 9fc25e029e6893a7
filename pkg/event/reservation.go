// Package event defines the reservation lifecycle messages published to the message bus.
package event

import "time"

const (
	// ReservationTopic carries every reservation status change.
	ReservationTopic = "reservations.lifecycle"

	// EventReservationHeld is emitted when seats are held pending confirmation.
	EventReservationHeld = "reservation.held"
	// EventReservationConfirmed is emitted when a reservation becomes binding.
	EventReservationConfirmed = "reservation.confirmed"
	// EventReservationCancelled is emitted on cancellation, including expired holds.
	EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is the payload of every lifecycle message.
type ReservationEvent struct {
	EventType        string    `json:"event_type"`
	ReservationID    string    `json:"reservation_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	RestaurantID     string    `json:"restaurant_id"`
	PartySize        int       `json:"party_size"`
	SlotStart        time.Time `json:"slot_start"`
	SlotEnd          time.Time `json:"slot_end"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
