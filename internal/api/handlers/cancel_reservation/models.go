package cancel_reservation

import (
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations/models"
)

// CancelReservationRequest HTTP request model
type CancelReservationRequest struct {
	Contact string  `json:"contact"`
	Reason  *string `json:"reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelReservationRequest) ToServiceRequest() *models.CancelReservationRequest {
	reason := ""
	if r.Reason != nil {
		reason = *r.Reason
	}

	return &models.CancelReservationRequest{
		Contact: r.Contact,
		Reason:  reason,
	}
}
