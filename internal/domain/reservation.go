package domain

import "time"

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents seats booked at a restaurant for a time slot.
// Reservations are never deleted; cancelled is terminal.
type Reservation struct {
	ID               string
	ConfirmationCode string
	RestaurantID     string
	Contact          string
	CustomerName     string
	SpecialRequests  string
	Slot             TimeSlot
	PartySize        int
	Status           ReservationStatus

	// HoldExpiresAt is set for pending holds only
	HoldExpiresAt *time.Time
	CancelReason  string
	CancelledAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HoldExpired returns true if this is a pending hold whose lifetime has passed
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.Status == StatusPending && r.HoldExpiresAt != nil && !now.Before(*r.HoldExpiresAt)
}

// CountsAt returns true if the reservation occupies seats as of now:
// confirmed reservations and live pending holds do, cancelled and expired holds don't
func (r *Reservation) CountsAt(now time.Time) bool {
	switch r.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		return !r.HoldExpired(now)
	}
	return false
}

// IsCancelled returns true if the reservation has been cancelled
func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// CanBeConfirmed returns true if the reservation is a hold that has not expired yet
func (r *Reservation) CanBeConfirmed(now time.Time) bool {
	return r.Status == StatusPending && !r.HoldExpired(now)
}
