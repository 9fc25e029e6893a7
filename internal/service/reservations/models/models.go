package models

import (
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// CancelReservationRequest запрос на отмену бронирования
type CancelReservationRequest struct {
	Contact string `json:"contact"`
	Reason  string `json:"reason,omitempty"`
}

// ListByContactRequest запрос на получение бронирований гостя
type ListByContactRequest struct {
	Contact          string
	IncludeCancelled bool
}

// ListByRestaurantRequest запрос на получение бронирований ресторана за день
type ListByRestaurantRequest struct {
	RestaurantID string
	// Date календарный день в часовом поясе ресторана
	Date time.Time
	// Status опционально: pending или confirmed
	Status *domain.ReservationStatus
}

// ReservationResponse бронирование в ответе API
type ReservationResponse struct {
	ID               string     `json:"id"`
	ConfirmationCode string     `json:"confirmationCode"`
	RestaurantID     string     `json:"restaurantId"`
	RestaurantName   string     `json:"restaurantName,omitempty"`
	CustomerName     string     `json:"customerName,omitempty"`
	SpecialRequests  string     `json:"specialRequests,omitempty"`
	Start            time.Time  `json:"start"`
	End              time.Time  `json:"end"`
	PartySize        int        `json:"partySize"`
	Status           string     `json:"status"`
	HoldExpiresAt    *time.Time `json:"holdExpiresAt,omitempty"`
	CancelReason     string     `json:"cancelReason,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ReservationListResponse список бронирований
type ReservationListResponse struct {
	Reservations []*ReservationResponse `json:"reservations"`
	Total        int                    `json:"total"`
}

// FromDomainReservation конвертирует доменное бронирование в ответ
// Контакт гостя в ответ не попадает
func FromDomainReservation(res *domain.Reservation, restaurantName string) *ReservationResponse {
	return &ReservationResponse{
		ID:               res.ID,
		ConfirmationCode: res.ConfirmationCode,
		RestaurantID:     res.RestaurantID,
		RestaurantName:   restaurantName,
		CustomerName:     res.CustomerName,
		SpecialRequests:  res.SpecialRequests,
		Start:            res.Slot.Start,
		End:              res.Slot.End(),
		PartySize:        res.PartySize,
		Status:           string(res.Status),
		HoldExpiresAt:    res.HoldExpiresAt,
		CancelReason:     res.CancelReason,
		CancelledAt:      res.CancelledAt,
		CreatedAt:        res.CreatedAt,
	}
}
